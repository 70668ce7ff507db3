// Package config loads service configuration from environment variables and
// a .properties file. Env vars carry deployment wiring (bind address,
// brokers, topics); the properties file carries the room list and the
// occupancy reference band table.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/afifnasrullahs/roomcomfort/internal/engine"
)

type AppConfig struct {
	HTTPBind string

	KafkaBrokers     []string
	ReadingsTopic    string
	ResultTopic      string
	CommandTopicPref string
	TopicReplication int

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	PollIntervalMs int
	PropertiesPath string
	HistoryPath    string

	LLMMode      string
	LLMEndpoint  string
	LLMModel     string
	LLMAPIKey    string
	LLMTimeoutMs int

	Rooms []string
	Bands []engine.ReferenceBand
}

// Load reads the environment and the properties file. Kafka and MQTT are
// optional transports: empty broker settings disable them and the service
// runs HTTP-only.
func Load() (*AppConfig, error) {
	c := &AppConfig{
		HTTPBind:         getenv("HTTP_BIND", ":8080"),
		KafkaBrokers:     split(getenv("KAFKA_BROKERS", ""), ","),
		ReadingsTopic:    getenv("READINGS_TOPIC", "sensor.readings"),
		ResultTopic:      getenv("RESULT_TOPIC", "comfort.results"),
		CommandTopicPref: getenv("COMMAND_TOPIC_PREFIX", "ac.commands."),
		TopicReplication: geti("TOPIC_REPLICATION", 1),
		MQTTBroker:       getenv("MQTT_BROKER", ""),
		MQTTTopic:        getenv("MQTT_TOPIC", "sensors/readings"),
		MQTTClientID:     getenv("MQTT_CLIENT_ID", "comfortd"),
		PollIntervalMs:   geti("POLL_INTERVAL_MS", 1000),
		PropertiesPath:   getenv("PROPERTIES_PATH", "./configs/comfort.properties"),
		HistoryPath:      getenv("HISTORY_PATH", "./data/comfort.db"),
		LLMMode:          strings.ToLower(getenv("LLM_MODE", "ollama")),
		LLMEndpoint:      getenv("LLM_ENDPOINT", "http://localhost:11434/api/generate"),
		LLMModel:         getenv("LLM_MODEL", "llama3.2"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMTimeoutMs:     geti("LLM_TIMEOUT_MS", 60000),
	}
	if err := c.loadProperties(c.PropertiesPath); err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadProperties re-reads the properties file in place. On parse or
// validation failure the previous values are kept.
func (c *AppConfig) ReloadProperties() error { return c.loadProperties(c.PropertiesPath) }

// loadProperties parses key=value lines. Recognized keys:
//
//	rooms=room-A,room-B
//	band.<i>.occ=<min>-<max>
//	band.<i>.temp=<target C>
//	band.<i>.hum=<min>-<max>
//	band.<i>.lux=<target>
//	band.<i>.noise=<max dB>
//
// Bands are optional; without any band.* key the built-in reference table is
// used. A configured table replaces the built-in one entirely and must pass
// engine.NewBandTable validation.
func (c *AppConfig) loadProperties(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rooms []string
	bandRows := map[int]*engine.ReferenceBand{}
	band := func(i int) *engine.ReferenceBand {
		if b, ok := bandRows[i]; ok {
			return b
		}
		b := &engine.ReferenceBand{}
		bandRows[i] = b
		return b
	}

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		switch {
		case k == "rooms":
			rooms = split(v, ",")
		case strings.HasPrefix(k, "band."):
			rest := strings.TrimPrefix(k, "band.")
			idxStr, field, ok := strings.Cut(rest, ".")
			if !ok {
				continue
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return fmt.Errorf("properties: bad band index in %q", k)
			}
			if err := applyBandField(band(idx), field, v); err != nil {
				return fmt.Errorf("properties: %s: %w", k, err)
			}
		}
	}
	if err := s.Err(); err != nil {
		return err
	}
	if len(rooms) == 0 {
		return errors.New("rooms must be set in properties")
	}

	bands := engine.DefaultBands()
	if len(bandRows) > 0 {
		bands = make([]engine.ReferenceBand, 0, len(bandRows))
		idxs := make([]int, 0, len(bandRows))
		for i := range bandRows {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		for _, i := range idxs {
			bands = append(bands, *bandRows[i])
		}
	}
	// fail fast on malformed tables at load time; the resolver itself never
	// validates
	if _, err := engine.NewBandTable(bands); err != nil {
		return err
	}

	c.Rooms = rooms
	c.Bands = bands
	return nil
}

func applyBandField(b *engine.ReferenceBand, field, v string) error {
	switch field {
	case "occ":
		min, max, err := parseIntRange(v)
		if err != nil {
			return err
		}
		b.OccMin, b.OccMax = min, max
	case "temp":
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		b.TargetTemp = t
	case "hum":
		min, max, err := parseIntRange(v)
		if err != nil {
			return err
		}
		b.HumMin, b.HumMax = min, max
	case "lux":
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		b.TargetLux = n
	case "noise":
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		b.NoiseMax = n
	default:
		return fmt.Errorf("unknown band field %q", field)
	}
	return nil
}

func parseIntRange(v string) (int, int, error) {
	lo, hi, ok := strings.Cut(v, "-")
	if !ok {
		return 0, 0, fmt.Errorf("expected <min>-<max>, got %q", v)
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, err
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func geti(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
