package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Handler processes one raw inbound message to completion.
type Handler interface {
	Handle(ctx context.Context, raw []byte)
}

// FetchPoller is the slice of the Kafka client the consumer needs. The
// production implementation is *kgo.Client.
type FetchPoller interface {
	PollFetches(ctx context.Context) kgo.Fetches
}

// Consumer drives the inbound stream. Within a partition, records are
// handled strictly in arrival order, one at a time; partitions within a
// poll are processed in parallel and independently. Losing the stream
// connection is fatal; process-level restart owns recovery.
type Consumer struct {
	client  FetchPoller
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(client FetchPoller, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, handler: handler, logger: logger}
}

// Run polls until ctx is cancelled, the client closes, or the stream fails.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("dispatch consumer started")
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			c.logger.Info("kafka client closed, consumer stopping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fetchError(fetches); err != nil {
			c.logger.Error("inbound stream failed", "error", err)
			return err
		}

		var wg sync.WaitGroup
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			records := p.Records
			if len(records) == 0 {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, record := range records {
					c.handler.Handle(ctx, record.Value)
				}
			}()
		})
		wg.Wait()
	}
}

func fetchError(fetches kgo.Fetches) error {
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.Canceled) {
			return fe.Err
		}
		return fmt.Errorf("fetch %s/%d: %w", fe.Topic, fe.Partition, fe.Err)
	}
	return nil
}
