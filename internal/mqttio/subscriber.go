// Package mqttio accepts sensor readings over MQTT for deployments where the
// gateways speak MQTT instead of Kafka. Decoded readings are handed to a
// callback; the subscriber never blocks on it.
package mqttio

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/afifnasrullahs/roomcomfort/internal/kafkabus"
	"github.com/afifnasrullahs/roomcomfort/internal/metrics"
)

// Handler receives each decoded reading.
type Handler func(kafkabus.ReadingMessage)

// Subscriber holds one MQTT connection subscribed to the readings topic.
type Subscriber struct {
	client mqtt.Client
	topic  string
	lg     *slog.Logger
}

func New(broker, clientID, topic string, lg *slog.Logger, handle Handler) (*Subscriber, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		lg.Warn("mqtt connection lost", "error", err)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}

	s := &Subscriber{client: c, topic: topic, lg: lg}
	token := c.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var rm kafkabus.ReadingMessage
		if err := json.Unmarshal(msg.Payload(), &rm); err != nil {
			lg.Error("bad json", "topic", msg.Topic(), "error", err)
			metrics.IncReadingDrop(metrics.DropReasonJSONError)
			return
		}
		if rm.RoomID == "" {
			lg.Warn("reading without roomId dropped", "topic", msg.Topic())
			metrics.IncReadingDrop(metrics.DropReasonEmptyRoom)
			return
		}
		metrics.IncReadingConsumed()
		go handle(rm)
	})
	if token.Wait() && token.Error() != nil {
		c.Disconnect(250)
		return nil, fmt.Errorf("mqtt subscribe %s: %w", topic, token.Error())
	}
	lg.Info("mqtt subscribed", "broker", broker, "topic", topic)
	return s, nil
}

func (s *Subscriber) Close() {
	s.client.Unsubscribe(s.topic)
	s.client.Disconnect(250)
}
