package tail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// kafkaConsumer abstracts the confluent consumer for tests.
type kafkaConsumer interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Close() error
}

// FilterOptions represents filtering and display options for tailing
type FilterOptions struct {
	Driver       string // match messages keyed by this driver number
	Key          string // exact partition key match
	OutputFormat string // text, json
	ShowRaw      bool
}

// Tailer consumes relayed f1-* topics and prints matching messages.
type Tailer struct {
	consumer kafkaConsumer
	topics   []string
	opts     FilterOptions
}

// Envelope represents one consumed message with metadata
type Envelope struct {
	Topic     string    `json:"topic"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key,omitempty"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTailer creates a Kafka consumer for the given destination topics.
func NewTailer(brokers, consumerGroup string, topics []string, fromBeginning bool, opts FilterOptions) (*Tailer, error) {
	offsetReset := "latest"
	if fromBeginning {
		offsetReset = "earliest"
	}
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           consumerGroup,
		"auto.offset.reset":  offsetReset,
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	return &Tailer{consumer: consumer, topics: topics, opts: opts}, nil
}

// Start begins consuming messages until the context is canceled.
func (t *Tailer) Start(ctx context.Context) error {
	if err := t.consumer.SubscribeTopics(t.topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	fmt.Printf("🚀 Tailing topics: %s\n", strings.Join(t.topics, ", "))
	if t.opts.Driver != "" {
		fmt.Printf("🏎️ Driver filter: %s\n", t.opts.Driver)
	}
	if t.opts.Key != "" {
		fmt.Printf("🔑 Key filter: %s\n", t.opts.Key)
	}
	fmt.Println("---")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n🛑 Shutting down tailer...")
			return nil
		default:
			msg, err := t.consumer.ReadMessage(1000 * time.Millisecond)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				log.Printf("❌ Consumer error: %v", err)
				continue
			}

			if t.shouldDisplay(msg) {
				t.display(msg)
			}
		}
	}
}

// shouldDisplay determines if a message matches the filters. The relay
// keys per-entity topics by driver number, so the driver filter is a
// straight key comparison.
func (t *Tailer) shouldDisplay(msg *kafka.Message) bool {
	key := string(msg.Key)
	if t.opts.Driver != "" && key != t.opts.Driver {
		return false
	}
	if t.opts.Key != "" && key != t.opts.Key {
		return false
	}
	return true
}

// display formats and prints a consumed message
func (t *Tailer) display(msg *kafka.Message) {
	envelope := Envelope{
		Topic:     *msg.TopicPartition.Topic,
		Partition: msg.TopicPartition.Partition,
		Offset:    int64(msg.TopicPartition.Offset),
		Key:       string(msg.Key),
		Value:     string(msg.Value),
		Timestamp: msg.Timestamp,
	}

	switch t.opts.OutputFormat {
	case "json":
		t.displayAsJSON(envelope)
	default:
		t.displayAsText(envelope)
	}
}

// displayAsJSON emits one envelope object per message
func (t *Tailer) displayAsJSON(envelope Envelope) {
	if t.opts.ShowRaw {
		jsonBytes, _ := json.MarshalIndent(envelope, "", "  ")
		fmt.Println(string(jsonBytes))
		return
	}
	jsonBytes, _ := json.Marshal(envelope)
	fmt.Println(string(jsonBytes))
}

// displayAsText prints time, topic, key and a payload preview
func (t *Tailer) displayAsText(envelope Envelope) {
	if t.opts.ShowRaw {
		fmt.Printf("🕐 %s | 📝 %s[%d]@%d | 🔑 %s\n%s\n---\n",
			envelope.Timestamp.Format("15:04:05.000"),
			envelope.Topic,
			envelope.Partition,
			envelope.Offset,
			envelope.Key,
			envelope.Value)
		return
	}
	fmt.Printf("🕐 %s | 📝 %s | 🔑 %s | %s\n",
		envelope.Timestamp.Format("15:04:05"),
		envelope.Topic,
		envelope.Key,
		previewValue(envelope.Value, 160))
}

// previewValue compacts JSON payloads and truncates long ones
func previewValue(value string, limit int) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(value)); err == nil {
		value = buf.String()
	}
	if len(value) > limit {
		return value[:limit] + "..."
	}
	return value
}

// Close closes the Kafka consumer
func (t *Tailer) Close() error {
	return t.consumer.Close()
}
