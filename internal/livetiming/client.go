package livetiming

import "context"

// BatchHandler receives one batch per upstream notification. The client
// invokes it sequentially; handlers never run concurrently with themselves.
type BatchHandler func(Batch)

// Client is the seam to the upstream live-timing source. The real
// SignalR-speaking client lives outside this repository; the replay
// client implements the same contract from a capture file.
type Client interface {
	// OnBatch registers the handler invoked for each incoming batch.
	// Must be called before Run.
	OnBatch(handler BatchHandler)

	// Run streams batches until the session ends, the context is
	// canceled, or the source fails. Blocking.
	Run(ctx context.Context) error

	// Topics returns the active subscription list.
	Topics() []string
}
