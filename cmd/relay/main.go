package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/andrelan/f1-telemetry-relay/internal/broker"
	relayConfig "github.com/andrelan/f1-telemetry-relay/internal/config"
	"github.com/andrelan/f1-telemetry-relay/internal/livetiming"
	"github.com/andrelan/f1-telemetry-relay/internal/relay"
	"github.com/andrelan/f1-telemetry-relay/internal/topics"
)

func main() {
	// Parse command line arguments
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		brokers    = flag.String("brokers", "", "Kafka brokers (overrides config)")
		topicList  = flag.String("topics", "", "Comma-separated source topics to relay (overrides config)")
		replayFile = flag.String("replay", "", "Capture file to replay (overrides config)")
		testKafka  = flag.Bool("test-kafka", false, "Test Kafka connection and send one smoke record")
	)
	flag.Parse()

	// Load .env if present so local runs match docker-compose
	if err := godotenv.Load(); err == nil {
		log.Printf("📄 Loaded environment from .env")
	}

	// Load configuration
	var cfg *relayConfig.Config
	var err error

	if *configFile != "" {
		cfg, err = relayConfig.LoadFromFile(*configFile)
		if err != nil {
			log.Fatalf("❌ Failed to load configuration from file: %v", err)
		}
	} else {
		cfg, err = relayConfig.LoadFromEnv()
		if err != nil {
			log.Fatalf("❌ Failed to load configuration from environment: %v", err)
		}
	}

	// Apply flag overrides
	if *brokers != "" {
		cfg.Kafka.Brokers = *brokers
	}
	if *topicList != "" {
		cfg.Relay.Topics = splitTopics(*topicList)
	}
	if *replayFile != "" {
		cfg.Source.ReplayFile = *replayFile
	}

	// Optional rotating log file
	if cfg.Logging.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	}

	// Handle test-kafka command
	if *testKafka {
		if err := testKafkaConnection(cfg); err != nil {
			log.Fatalf("❌ Kafka connection test failed: %v", err)
		}
		log.Printf("✅ Kafka connection test successful")
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("❌ Relay failed: %v", err)
	}
	log.Printf("✅ Relay finished successfully")
}

func run(cfg *relayConfig.Config) error {
	registry := topics.NewRegistry(cfg.Relay.Topics)

	client := livetiming.NewReplayClient(
		cfg.Source.ReplayFile,
		registry.Topics(),
		cfg.Source.ReplayInterval,
	)

	var capture *livetiming.CaptureWriter
	if cfg.Source.CaptureFile != "" {
		var err error
		capture, err = livetiming.NewCaptureWriter(cfg.Source.CaptureFile)
		if err != nil {
			return err
		}
		defer capture.Close()
		log.Printf("💾 Capturing accepted batches to %s", cfg.Source.CaptureFile)
	}

	producer, err := broker.Connect(broker.Options{
		Brokers:           cfg.Kafka.Brokers,
		Acks:              cfg.Kafka.Producer.Acks,
		LingerMs:          cfg.Kafka.Producer.LingerMs,
		CompressionType:   cfg.Kafka.Producer.CompressionType,
		EnableIdempotence: cfg.Kafka.Producer.EnableIdempotence,
		SendTimeout:       cfg.Kafka.Producer.SendTimeout,
		CloseTimeout:      cfg.Kafka.Producer.CloseTimeout,
	})
	if err != nil {
		return err
	}

	r := relay.New(registry, producer, client, relay.Config{
		BatchBuffer: cfg.Relay.BatchBuffer,
		Capture:     capture,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)
		r.Stop()
	}()

	if err := r.Start(ctx); err != nil {
		return err
	}
	return r.Wait()
}

// testKafkaConnection probes the cluster and publishes one smoke record
// to the default realtime topic.
func testKafkaConnection(cfg *relayConfig.Config) error {
	log.Printf("🔍 Testing Kafka connection to: %s", cfg.Kafka.Brokers)

	producer, err := broker.Connect(broker.Options{
		Brokers:         cfg.Kafka.Brokers,
		Acks:            "all",
		CompressionType: "none",
		SendTimeout:     cfg.Kafka.Producer.SendTimeout,
		CloseTimeout:    cfg.Kafka.Producer.CloseTimeout,
	})
	if err != nil {
		return err
	}
	defer producer.Close()

	smoke := map[string]any{
		"event":     "race_start",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return producer.Send(topics.TopicRealtimeData, "", smoke)
}

func splitTopics(csv string) []string {
	parts := strings.Split(csv, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
