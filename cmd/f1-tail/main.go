package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrelan/f1-telemetry-relay/internal/tail"
	"github.com/andrelan/f1-telemetry-relay/internal/topics"
)

var (
	kafkaBrokers  string
	topicList     []string
	driver        string
	key           string
	outputFormat  string
	showRaw       bool
	consumerGroup string
	fromBeginning bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "f1-tail",
	Short: "Tail relayed F1 telemetry topics with filtering capabilities",
	Long: `A CLI utility to tail the f1-* Kafka topics produced by the relay.

Supports filtering by driver number (the partition key of per-driver
topics) or by exact partition key.

Examples:
  # Tail everything
  f1-tail

  # Only Hamilton's car telemetry
  f1-tail --topics f1-cardata --driver 44

  # Single-stream session topics
  f1-tail --topics f1-sessionstatus,f1-trackstatus

  # Exact key match
  f1-tail --key race-control

  # Output as JSON, reading the topic from the start
  f1-tail --format json --from-beginning`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTail()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kafkaBrokers, "brokers", "localhost:29092", "Kafka brokers")
	rootCmd.PersistentFlags().StringSliceVarP(&topicList, "topics", "t", nil, "destination topics to consume from (default: all relayed topics)")
	rootCmd.PersistentFlags().StringVarP(&driver, "driver", "d", "", "driver number filter (e.g. 44)")
	rootCmd.PersistentFlags().StringVarP(&key, "key", "k", "", "exact partition key filter")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVar(&showRaw, "raw", false, "show raw message metadata")
	rootCmd.PersistentFlags().StringVarP(&consumerGroup, "consumer-group", "g", "f1-tail-cli", "Kafka consumer group ID")
	rootCmd.PersistentFlags().BoolVar(&fromBeginning, "from-beginning", false, "read topics from the earliest offset")
}

func runTail() error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", outputFormat)
	}

	topicsToConsume := topicList
	if len(topicsToConsume) == 0 {
		topicsToConsume = defaultDestinations()
	}

	// Print configuration summary
	fmt.Printf("🔧 Configuration Summary:\n")
	fmt.Printf("  Kafka Brokers: %s\n", kafkaBrokers)
	fmt.Printf("  Consumer Group: %s\n", consumerGroup)
	fmt.Printf("  Topics: %s\n", strings.Join(topicsToConsume, ", "))
	if driver != "" {
		fmt.Printf("  Driver Filter: %s\n", driver)
	}
	if key != "" {
		fmt.Printf("  Key Filter: %s\n", key)
	}
	fmt.Printf("  Output Format: %s\n", outputFormat)
	fmt.Println()

	opts := tail.FilterOptions{
		Driver:       driver,
		Key:          key,
		OutputFormat: outputFormat,
		ShowRaw:      showRaw,
	}

	tailer, err := tail.NewTailer(kafkaBrokers, consumerGroup, topicsToConsume, fromBeginning, opts)
	if err != nil {
		return fmt.Errorf("failed to create tailer: %w", err)
	}
	defer tailer.Close()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		fmt.Println("\n🛑 Received shutdown signal...")
		cancel()
	}()

	return tailer.Start(ctx)
}

// defaultDestinations derives the consumable topic set from the registry.
func defaultDestinations() []string {
	registry := topics.NewRegistry(nil)
	seen := make(map[string]struct{})
	var destinations []string
	for _, source := range registry.Topics() {
		destination := topics.Destination(source)
		if _, ok := seen[destination]; ok {
			continue
		}
		seen[destination] = struct{}{}
		destinations = append(destinations, destination)
	}
	return destinations
}
