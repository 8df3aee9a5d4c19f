package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/processors"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// Pipeline runs the relays of one call concurrently. When any relay ends,
// every channel is closed so the remaining relays unblock and end too.
type Pipeline struct {
	relays   []processors.Relay
	channels []transports.Channel
	logger   *logger.Logger
}

// NewPipeline creates a pipeline over relays that read from channels
func NewPipeline(relays []processors.Relay, channels ...transports.Channel) *Pipeline {
	return &Pipeline{
		relays:   relays,
		channels: channels,
		logger:   logger.WithPrefix("Pipeline"),
	}
}

// Run blocks until every relay has returned. The first relay error is
// returned.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.relays) == 0 {
		p.closeAll()
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, relay := range p.relays {
		g.Go(func() error {
			defer cancel()
			if err := relay.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", relay.Name(), err)
			}
			p.logger.Debug("%s finished", relay.Name())
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		p.closeAll()
		return nil
	})

	return g.Wait()
}

func (p *Pipeline) closeAll() {
	for _, ch := range p.channels {
		if err := ch.Close(); err != nil {
			p.logger.Debug("error closing channel: %v", err)
		}
	}
}
