package broker

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Timeout for the connectivity probe at construction.
const metadataTimeoutMs = 5000

// kafkaProducer abstracts the confluent producer operations the client
// uses, so tests can inject mocks.
type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Flush(timeoutMs int) int
	Close()
}

// Options configures the producer client.
type Options struct {
	Brokers           string
	Acks              string
	LingerMs          int
	CompressionType   string
	EnableIdempotence bool
	SendTimeout       time.Duration
	CloseTimeout      time.Duration
}

// Producer owns one Kafka connection and publishes keyed JSON messages
// synchronously. Sends block until broker acknowledgment or timeout;
// failures surface as DeliveryError and are never retried here.
type Producer struct {
	producer     kafkaProducer
	sendTimeout  time.Duration
	closeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Connect builds the producer and probes broker connectivity. Any failure
// is a ConnectionError; there is no recovery at this layer.
func Connect(opts Options) (*Producer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  opts.Brokers,
		"acks":               opts.Acks,
		"linger.ms":          opts.LingerMs,
		"compression.type":   opts.CompressionType,
		"enable.idempotence": opts.EnableIdempotence,
	}

	producer, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, &ConnectionError{Brokers: opts.Brokers, Err: err}
	}

	// Probe connectivity so a bad broker list fails at startup rather
	// than on the first send.
	metadata, err := producer.GetMetadata(nil, false, metadataTimeoutMs)
	if err != nil {
		producer.Close()
		return nil, &ConnectionError{Brokers: opts.Brokers, Err: err}
	}
	log.Printf("📡 Connected to Kafka cluster with %d broker(s)", len(metadata.Brokers))

	return &Producer{
		producer:     producer,
		sendTimeout:  opts.SendTimeout,
		closeTimeout: opts.CloseTimeout,
	}, nil
}

// Send JSON-encodes value and publishes it to topic under key, blocking
// until the delivery report arrives or the send timeout elapses. An empty
// key is omitted from the message.
func (p *Producer) Send(topic, key string, value any) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return &DeliveryError{Topic: topic, Err: ErrClosed}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &DeliveryError{Topic: topic, Err: err}
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
	}
	if key != "" {
		msg.Key = []byte(key)
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return &DeliveryError{Topic: topic, Err: err}
	}

	select {
	case event := <-deliveryChan:
		switch e := event.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				return &DeliveryError{Topic: topic, Err: e.TopicPartition.Error}
			}
			return nil
		case kafka.Error:
			return &DeliveryError{Topic: topic, Err: e}
		default:
			return nil
		}
	case <-time.After(p.sendTimeout):
		return &DeliveryError{Topic: topic, Err: ErrTimeout}
	}
}

// Close flushes in-flight sends and releases the connection. Idempotent;
// safe to call with no prior sends.
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	unflushed := p.producer.Flush(int(p.closeTimeout.Milliseconds()))
	if unflushed > 0 {
		log.Printf("⚠️ Producer closed with %d unflushed message(s)", unflushed)
	}
	p.producer.Close()
	log.Printf("🛑 Kafka producer closed")
}
