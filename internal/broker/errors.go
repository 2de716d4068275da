package broker

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Send after the producer has been closed.
var ErrClosed = errors.New("producer is closed")

// ErrTimeout is returned by Send when no delivery report arrives within
// the configured send timeout.
var ErrTimeout = errors.New("delivery confirmation timed out")

// ConnectionError reports a failure to establish the broker connection.
// Fatal at construction time; callers abort startup rather than retry.
type ConnectionError struct {
	Brokers string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to Kafka brokers %s: %v", e.Brokers, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DeliveryError reports a failed publish of one record. The relay catches
// it at the per-record boundary; it never aborts a batch.
type DeliveryError struct {
	Topic string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver message to topic %s: %v", e.Topic, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
