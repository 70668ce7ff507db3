// sensor-sim publishes synthetic room sensor readings over MQTT so the
// service can be exercised without real hardware.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
	"github.com/afifnasrullahs/roomcomfort/internal/kafkabus"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	topic := flag.String("topic", "sensors/readings", "topic to publish readings on")
	rooms := flag.String("rooms", "room-A", "comma-separated room ids")
	interval := flag.Duration("interval", 2*time.Second, "publish interval per room")
	flag.Parse()

	opts := mqtt.NewClientOptions().AddBroker(*broker).SetClientID("sensor-sim")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("connect %s: %v", *broker, token.Error())
	}
	defer client.Disconnect(250)

	roomIDs := strings.Split(*rooms, ",")
	log.Printf("publishing to %s for rooms %v every %v", *topic, roomIDs, *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			log.Println("stopping")
			return
		case t := <-ticker.C:
			for _, room := range roomIDs {
				rm := kafkabus.ReadingMessage{
					RoomID:    strings.TrimSpace(room),
					Timestamp: t.UTC(),
					SensorReading: engine.SensorReading{
						Temperature: 20 + rand.Float64()*12, // 20..32 C
						Humidity:    35 + rand.Float64()*45, // 35..80 %
						Noise:       35 + rand.Float64()*30, // 35..65 dB
						LightLevel:  100 + rand.Float64()*600,
						Occupancy:   rand.Intn(35),
					},
				}
				payload, err := json.Marshal(rm)
				if err != nil {
					log.Printf("marshal: %v", err)
					continue
				}
				token := client.Publish(*topic, 0, false, payload)
				token.Wait()
				if token.Error() != nil {
					log.Printf("publish %s: %v", rm.RoomID, token.Error())
				}
			}
		}
	}
}
