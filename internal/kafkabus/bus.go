package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afifnasrullahs/roomcomfort/internal/config"
	"github.com/afifnasrullahs/roomcomfort/internal/metrics"
)

// Bus owns one partition reader per room on the readings topic, a shared
// result writer, and one command writer per room.
type Bus struct {
	cfg *config.AppConfig
	lg  *slog.Logger

	roomReaders    map[string]*kafka.Reader
	commandWriters map[string]*kafka.Writer
	resultWriter   *kafka.Writer
}

func New(cfg *config.AppConfig, lg *slog.Logger) (*Bus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if len(cfg.Rooms) == 0 {
		return nil, errors.New("no rooms configured")
	}
	b := &Bus{
		cfg:            cfg,
		lg:             lg,
		roomReaders:    map[string]*kafka.Reader{},
		commandWriters: map[string]*kafka.Writer{},
	}
	if err := b.ensureTopics(context.Background()); err != nil {
		lg.Warn("topic ensure failed", "error", err)
	}
	for idx, room := range cfg.Rooms {
		b.roomReaders[room] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:   cfg.KafkaBrokers,
			Topic:     cfg.ReadingsTopic,
			Partition: idx, // one partition per room (gateway -> engine)
			MinBytes:  1, MaxBytes: 10e6, MaxWait: 200 * time.Millisecond,
		})
		cmdTopic := cfg.CommandTopicPref + room
		b.commandWriters[room] = &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cmdTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		lg.Info("kafka wired", "room", room, "readingsTopic", cfg.ReadingsTopic, "partition", idx, "commandTopic", cmdTopic)
	}
	b.resultWriter = &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.ResultTopic,
		RequiredAcks: kafka.RequireAll,
	}
	return b, nil
}

func (b *Bus) ensureTopics(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", b.cfg.KafkaBrokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			b.lg.Warn("broker conn close", "error", err)
		}
	}()
	ctrl, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	c, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ctrl.Host, ctrl.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			b.lg.Warn("controller conn close", "error", err)
		}
	}()

	cfgs := []kafka.TopicConfig{
		{Topic: b.cfg.ReadingsTopic, NumPartitions: len(b.cfg.Rooms), ReplicationFactor: b.cfg.TopicReplication},
		{Topic: b.cfg.ResultTopic, NumPartitions: 1, ReplicationFactor: b.cfg.TopicReplication},
	}
	for _, room := range b.cfg.Rooms {
		cfgs = append(cfgs, kafka.TopicConfig{
			Topic: b.cfg.CommandTopicPref + room, NumPartitions: 1, ReplicationFactor: b.cfg.TopicReplication,
		})
	}
	if err := c.CreateTopics(cfgs...); err != nil {
		b.lg.Warn("CreateTopics", "error", err)
	}
	b.lg.Info("topics ensured", "rooms", b.cfg.Rooms)
	return nil
}

func (b *Bus) Close() {
	for room, r := range b.roomReaders {
		_ = r.Close()
		b.lg.Info("reader closed", "room", room)
	}
	for room, w := range b.commandWriters {
		_ = w.Close()
		b.lg.Info("command writer closed", "room", room)
	}
	_ = b.resultWriter.Close()
}

// DrainRoomLatest reads everything waiting in the room's partition and keeps
// only the newest reading. Sensor gateways publish faster than the poll loop
// evaluates, so stale readings are skipped rather than processed in order.
func (b *Bus) DrainRoomLatest(ctx context.Context, room string) (ReadingMessage, bool, error) {
	r, ok := b.roomReaders[room]
	if !ok {
		return ReadingMessage{}, false, fmt.Errorf("no reader for room %s", room)
	}
	var latest ReadingMessage
	var got bool
	deadline := time.Now().Add(350 * time.Millisecond)
	for {
		ctx2, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
		msg, err := r.FetchMessage(ctx2)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			if !got {
				return ReadingMessage{}, false, err
			}
			break
		}
		var rm ReadingMessage
		if err := json.Unmarshal(msg.Value, &rm); err != nil {
			b.lg.Error("bad json", "room", room, "error", err)
			metrics.IncReadingDrop(metrics.DropReasonJSONError)
			continue
		}
		if got {
			metrics.IncReadingDrop(metrics.DropReasonStaleFetch)
		}
		if rm.RoomID == "" {
			rm.RoomID = room
		}
		latest = rm
		got = true
		metrics.IncReadingConsumed()
		if time.Now().After(deadline) {
			break
		}
	}
	if !got {
		return ReadingMessage{}, false, nil
	}
	b.lg.Info("reading", "room", room, "temp", latest.Temperature, "hum", latest.Humidity, "occupancy", latest.Occupancy)
	return latest, true, nil
}

// Publish writes the evaluation result to the shared result topic and the AC
// command to the room's command topic.
func (b *Bus) Publish(ctx context.Context, room string, res ResultMessage, cmd CommandMessage) error {
	cw, ok := b.commandWriters[room]
	if !ok {
		return fmt.Errorf("no command writer for %s", room)
	}

	rb, _ := json.Marshal(res)
	if err := b.resultWriter.WriteMessages(ctx, kafka.Message{
		Key: []byte(room), Value: rb, Time: time.Now(),
	}); err != nil {
		return fmt.Errorf("result write: %w", err)
	}

	cb, _ := json.Marshal(cmd)
	if err := cw.WriteMessages(ctx, kafka.Message{
		Key: []byte(room), Value: cb, Time: time.Now(),
	}); err != nil {
		b.lg.Error("command_write_err", "room", room, "topic", b.cfg.CommandTopicPref+room, "err", err)
		return fmt.Errorf("command write: %w", err)
	}
	metrics.IncCommandPublished()
	b.lg.Info("command_write_ok", "room", room, "setpoint", cmd.Temp, "mode", cmd.Mode, "fan", cmd.Fan)
	return nil
}
