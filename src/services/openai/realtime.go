package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// RealtimeConfig holds configuration for the OpenAI Realtime connection
type RealtimeConfig struct {
	APIKey       string
	URL          string        // full endpoint including ?model=
	DialTimeout  time.Duration // handshake timeout, 0 for gorilla's default
	WriteTimeout time.Duration
	ReadLimit    int64
}

// RealtimeDialer opens realtime sessions
type RealtimeDialer struct {
	config RealtimeConfig
	dialer *websocket.Dialer
	logger *logger.Logger
}

// NewRealtimeDialer creates a dialer for the realtime endpoint
func NewRealtimeDialer(config RealtimeConfig) *RealtimeDialer {
	dialer := *websocket.DefaultDialer
	if config.DialTimeout > 0 {
		dialer.HandshakeTimeout = config.DialTimeout
	}
	return &RealtimeDialer{
		config: config,
		dialer: &dialer,
		logger: logger.WithPrefix("OpenAIRealtime"),
	}
}

// Dial connects to the realtime endpoint and returns a frame channel
// speaking the realtime event protocol.
func (d *RealtimeDialer) Dial(ctx context.Context) (transports.Channel, error) {
	header := http.Header{}
	header.Set("Authorization", fmt.Sprintf("Bearer %s", d.config.APIKey))
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := d.dialer.DialContext(ctx, d.config.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to OpenAI Realtime (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to OpenAI Realtime: %w", err)
	}

	d.logger.Debug("connected to %s", d.config.URL)
	return transports.NewWebSocketChannel(conn, transports.ChannelConfig{
		Name:         "openai",
		Serializer:   serializers.NewRealtimeFrameSerializer(),
		WriteTimeout: d.config.WriteTimeout,
		ReadLimit:    d.config.ReadLimit,
	}), nil
}
