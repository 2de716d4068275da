package relay

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/andrelan/f1-telemetry-relay/internal/livetiming"
	"github.com/andrelan/f1-telemetry-relay/internal/topics"
)

// Truncation limit for payload previews in failure logs.
const previewBytes = 200

// Relay states
const (
	stateIdle int32 = iota
	stateRunning
	stateDraining
	stateStopped
)

// Sender abstracts the producer client so tests can inject mocks.
type Sender interface {
	Send(topic, key string, value any) error
	Close()
}

// Config holds the relay's tunables.
type Config struct {
	// BatchBuffer is the capacity of the channel between the upstream
	// batch handler and the processing goroutine.
	BatchBuffer int

	// Capture, when set, tees every accepted batch to a JSON-lines
	// capture file before relaying.
	Capture *livetiming.CaptureWriter
}

// Relay translates upstream batches into keyed broker publishes. One
// instance per process; once stopped it cannot be restarted.
type Relay struct {
	registry *topics.Registry
	producer Sender
	client   livetiming.Client
	capture  *livetiming.CaptureWriter

	batches  chan livetiming.Batch
	stopChan chan struct{}
	done     chan struct{}
	state    atomic.Int32
	stopOnce sync.Once
	cancel   context.CancelFunc

	errMu  sync.Mutex
	runErr error

	// Counters; batchesReceived is written from the upstream handler
	// goroutine, the record counters only from the processing goroutine.
	batchesReceived atomic.Int64
	recordsRelayed  int64
	recordsFailed   int64
}

// New assembles a relay with all dependencies injected.
func New(registry *topics.Registry, producer Sender, client livetiming.Client, cfg Config) *Relay {
	buffer := cfg.BatchBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Relay{
		registry: registry,
		producer: producer,
		client:   client,
		capture:  cfg.Capture,
		batches:  make(chan livetiming.Batch, buffer),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start registers the batch handler on the upstream client and launches
// the client's blocking Run and the processing goroutine. Non-blocking;
// use Wait to await completion. A relay starts at most once.
func (r *Relay) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(stateIdle, stateRunning) {
		return errors.New("relay has already been started")
	}

	r.client.OnBatch(r.handleBatch)

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	log.Printf("🚀 Relay started, subscribed to %d topic(s)", len(r.client.Topics()))

	go func() {
		err := r.client.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️ Upstream client terminated: %v", err)
			r.setRunErr(err)
		}
		// End of session or upstream failure: either way, drain.
		r.Stop()
	}()

	go r.process()
	return nil
}

// Stop requests shutdown: no new batches are accepted and the relay
// proceeds to draining. Idempotent. Use Wait to block until stopped.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		r.state.CompareAndSwap(stateRunning, stateDraining)
		close(r.stopChan)
		if r.cancel != nil {
			r.cancel()
		}
	})
}

// Wait blocks until the relay has stopped and returns the terminal
// upstream error, if any.
func (r *Relay) Wait() error {
	<-r.done
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.runErr
}

// handleBatch is the upstream client's callback. It enqueues onto the
// batch channel, applying backpressure while running, and gives up once
// draining begins so the upstream goroutine never wedges.
func (r *Relay) handleBatch(batch livetiming.Batch) {
	select {
	case <-r.stopChan:
		return
	default:
	}
	select {
	case r.batches <- batch:
		r.batchesReceived.Add(1)
	case <-r.stopChan:
	}
}

// process is the single processing goroutine: it consumes batches until
// the stop signal, drains what is already queued, and always closes the
// producer on the way out regardless of exit path.
func (r *Relay) process() {
	defer close(r.done)
	defer func() {
		r.producer.Close()
		r.state.Store(stateStopped)
		log.Printf("🛑 Relay stopped: %d batch(es) received, %d record(s) relayed, %d failed",
			r.batchesReceived.Load(), r.recordsRelayed, r.recordsFailed)
	}()

	for {
		select {
		case batch := <-r.batches:
			r.relayBatch(batch)
		case <-r.stopChan:
			for {
				select {
				case batch := <-r.batches:
					r.relayBatch(batch)
				default:
					return
				}
			}
		}
	}
}

// relayBatch publishes every record of a batch in per-topic order. A
// failed record is logged and skipped; it never aborts the batch.
func (r *Relay) relayBatch(batch livetiming.Batch) {
	if r.capture != nil {
		if err := r.capture.Append(batch); err != nil {
			log.Printf("⚠️ Failed to append batch to capture file: %v", err)
		}
	}

	for sourceTopic, records := range batch {
		destination := topics.Destination(sourceTopic)
		for _, record := range records {
			key := r.registry.ResolveKey(sourceTopic, record)
			if err := r.producer.Send(destination, key, record); err != nil {
				r.recordsFailed++
				log.Printf("❌ Failed to relay record to %s: %v", destination, err)
				log.Printf("   record: %s", record.Preview(previewBytes))
				continue
			}
			r.recordsRelayed++
		}
	}
}

func (r *Relay) setRunErr(err error) {
	r.errMu.Lock()
	r.runErr = err
	r.errMu.Unlock()
}
