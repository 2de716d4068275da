package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/andrelan/f1-telemetry-relay/internal/topics"
)

// TopicSpec represents configuration for a single topic read from YAML
type TopicSpec struct {
	Partitions int `yaml:"partitions"`
}

type TopicFile struct {
	Topics map[string]TopicSpec `yaml:"topics"`
}

func main() {
	var (
		brokerList  = flag.String("brokers", "localhost:29092", "Comma-separated list of bootstrap brokers")
		partitions  = flag.Int("partitions", 12, "Partitions for per-driver (field-keyed) destination topics")
		replication = flag.Int("replication", 1, "Replication factor for created topics")
		timeout     = flag.Duration("timeout", 30*time.Second, "Admin operation timeout")
		configPath  = flag.String("config", "", "Optional YAML file with an explicit topic list")
		verbose     = flag.Bool("verbose", false, "Show detailed topic configurations")
		dryRun      = flag.Bool("dry-run", false, "Show what would be created without creating topics")
	)
	flag.Parse()

	topicPartitions, err := resolveTopics(*configPath, *partitions)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	names := make([]string, 0, len(topicPartitions))
	for name := range topicPartitions {
		names = append(names, name)
	}
	sort.Strings(names)

	if *dryRun {
		fmt.Printf("🔍 Dry run mode - would create/verify %d topic(s):\n", len(names))
		for _, name := range names {
			fmt.Printf("   📋 %s (partitions: %d, replication: %d)\n", name, topicPartitions[name], *replication)
		}
		return
	}

	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": *brokerList})
	if err != nil {
		log.Fatalf("❌ Failed to create admin client: %v", err)
	}
	defer admin.Close()

	if *verbose {
		fmt.Printf("🔗 Connecting to Kafka brokers: %s\n", *brokerList)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var specs []kafka.TopicSpecification
	for _, name := range names {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             name,
			NumPartitions:     topicPartitions[name],
			ReplicationFactor: *replication,
		})
		if *verbose {
			fmt.Printf("📋 Configuring topic %s:\n", name)
			fmt.Printf("   Partitions: %d\n", topicPartitions[name])
			fmt.Printf("   Replication: %d\n", *replication)
		}
	}

	results, err := admin.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(*timeout))
	if err != nil {
		log.Fatalf("❌ CreateTopics request failed: %v", err)
	}

	var created, existing, failed int
	for _, res := range results {
		if res.Error.Code() == kafka.ErrTopicAlreadyExists {
			log.Printf("✓ %s already exists", res.Topic)
			existing++
		} else if res.Error.Code() == kafka.ErrNoError {
			log.Printf("✓ created %s", res.Topic)
			created++
		} else {
			log.Printf("✗ %s: %v", res.Topic, res.Error)
			failed++
		}
	}

	fmt.Printf("📊 Summary: %d created, %d existing, %d failed\n", created, existing, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// resolveTopics builds the topic -> partition-count map, either from an
// explicit YAML file or derived from the registry defaults. Per-driver
// destinations get the configured partition count so driver streams
// spread across consumers; single-stream destinations get one partition.
func resolveTopics(configPath string, partitions int) (map[string]int, error) {
	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %v", configPath, err)
		}
		var tf TopicFile
		if err := yaml.Unmarshal(content, &tf); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %v", configPath, err)
		}
		if len(tf.Topics) == 0 {
			return nil, fmt.Errorf("no topics defined in %s", configPath)
		}
		result := make(map[string]int, len(tf.Topics))
		for name, spec := range tf.Topics {
			p := spec.Partitions
			if p <= 0 {
				p = 1
			}
			result[name] = p
		}
		return result, nil
	}

	registry := topics.NewRegistry(nil)
	result := make(map[string]int)
	for _, cfg := range registry.Configs() {
		destination := topics.Destination(cfg.SourceTopic)
		p := 1
		if cfg.Strategy == topics.StrategyFieldExtract {
			p = partitions
		}
		// Keep the widest partition count when two sources share a destination
		if existing, ok := result[destination]; !ok || p > existing {
			result[destination] = p
		}
	}
	result[topics.TopicRealtimeData] = 1
	return result, nil
}
