package livetiming

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

// Line buffer for capture files; compressed telemetry lines can be large.
const maxLineBytes = 1024 * 1024

// ReplayClient replays a recorded session through the Client contract.
// The capture format is one JSON object per line, each mapping source
// topics to record arrays - the same format the live client tees to its
// session log while streaming.
type ReplayClient struct {
	path     string
	topics   []string
	topicSet map[string]struct{}
	interval time.Duration
	handler  BatchHandler
}

// Compile-time contract check.
var _ Client = (*ReplayClient)(nil)

// NewReplayClient creates a replay source for the given capture file,
// restricted to the given topics. A zero interval replays as fast as the
// file reads; a positive interval paces one line per tick.
func NewReplayClient(path string, topics []string, interval time.Duration) *ReplayClient {
	topicSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		topicSet[t] = struct{}{}
	}
	return &ReplayClient{
		path:     path,
		topics:   topics,
		topicSet: topicSet,
		interval: interval,
	}
}

// OnBatch registers the batch handler.
func (c *ReplayClient) OnBatch(handler BatchHandler) {
	c.handler = handler
}

// Topics returns the subscription list.
func (c *ReplayClient) Topics() []string {
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// Run replays the capture file line by line. Malformed lines are skipped
// with a warning. EOF ends the session normally.
func (c *ReplayClient) Run(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("no batch handler registered")
	}

	file, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", c.path, err)
	}
	defer file.Close()

	log.Printf("📼 Replaying capture file: %s (%d topics subscribed)", c.path, len(c.topics))

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	replayed := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var batch Batch
		if err := json.Unmarshal(line, &batch); err != nil {
			log.Printf("⚠️ Skipping malformed capture line %d: %v", lineNo, err)
			continue
		}

		batch = c.filter(batch)
		if len(batch) == 0 {
			continue
		}

		c.handler(batch)
		replayed++

		if c.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.interval):
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read capture file %s: %w", c.path, err)
	}

	log.Printf("📼 Replay complete: %d batches from %d lines", replayed, lineNo)
	return nil
}

// filter drops topics outside the subscription list. An empty list
// subscribes to everything the capture contains.
func (c *ReplayClient) filter(batch Batch) Batch {
	if len(c.topicSet) == 0 {
		return batch
	}
	filtered := make(Batch, len(batch))
	for topic, records := range batch {
		if _, ok := c.topicSet[topic]; ok {
			filtered[topic] = records
		}
	}
	return filtered
}
