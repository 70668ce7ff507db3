package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afifnasrullahs/roomcomfort/internal/config"
	"github.com/afifnasrullahs/roomcomfort/internal/history"
	"github.com/afifnasrullahs/roomcomfort/internal/httpapi"
	"github.com/afifnasrullahs/roomcomfort/internal/kafkabus"
	"github.com/afifnasrullahs/roomcomfort/internal/logging"
	"github.com/afifnasrullahs/roomcomfort/internal/mqttio"
	"github.com/afifnasrullahs/roomcomfort/internal/narrate"
	"github.com/afifnasrullahs/roomcomfort/internal/service"
)

func main() {
	lg, lf := logging.Init()
	if lf != nil && lf != os.Stdout {
		defer func() {
			if err := lf.Close(); err != nil {
				lg.Error("log file close", "error", err)
			}
		}()
	}
	lg.Info("comfortd starting")

	cfg, err := config.Load()
	if err != nil {
		lg.Error("config", "error", err)
		os.Exit(1)
	}
	lg.Info("config loaded", "rooms", cfg.Rooms, "brokers", cfg.KafkaBrokers, "bands", len(cfg.Bands))

	bands, err := service.NewBandStore(cfg.Bands)
	if err != nil {
		lg.Error("band table", "error", err)
		os.Exit(1)
	}

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		lg.Error("history", "error", err)
		os.Exit(1)
	}
	defer hist.Close()

	narr := narrate.New(cfg.LLMMode, cfg.LLMEndpoint, cfg.LLMModel, cfg.LLMAPIKey,
		time.Duration(cfg.LLMTimeoutMs)*time.Millisecond, lg)

	var bus service.Transport
	if len(cfg.KafkaBrokers) > 0 {
		kb, err := kafkabus.New(cfg, lg)
		if err != nil {
			lg.Error("kafka", "error", err)
			os.Exit(1)
		}
		defer kb.Close()
		bus = kb
	} else {
		lg.Info("kafka disabled, running http/mqtt only")
	}

	svc := service.New(cfg, lg, bands, bus, hist, narr)

	if cfg.MQTTBroker != "" {
		sub, err := mqttio.New(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, lg, svc.HandleReading)
		if err != nil {
			lg.Error("mqtt", "error", err)
			os.Exit(1)
		}
		defer sub.Close()
	}

	srv := httpapi.New(cfg.HTTPBind, lg, svc, hist)
	go func() {
		if err := srv.Start(); err != nil {
			lg.Error("http", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	sh, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	_ = srv.Stop(sh)
	lg.Info("comfortd stopped")
}
