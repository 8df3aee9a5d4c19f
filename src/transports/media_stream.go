package transports

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
)

// CallSidParam is the query parameter carrying the call identifier on the
// media stream URL
const CallSidParam = "call_sid"

// MediaStreamHandler runs one call over an accepted media stream. It owns
// the channel and must close it before returning.
type MediaStreamHandler func(ctx context.Context, callSid string, telephony *WebSocketChannel)

// MediaStreamConfig holds configuration for the media stream endpoint
type MediaStreamConfig struct {
	WriteTimeout time.Duration
	ReadLimit    int64
}

// MediaStreamServer accepts Twilio Media Streams websocket connections
type MediaStreamServer struct {
	config   MediaStreamConfig
	handler  MediaStreamHandler
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewMediaStreamServer creates the media stream endpoint
func NewMediaStreamServer(config MediaStreamConfig, handler MediaStreamHandler) *MediaStreamServer {
	return &MediaStreamServer{
		config:  config,
		handler: handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Twilio does not send an Origin header
			},
		},
		logger: logger.WithPrefix("MediaStream"),
	}
}

// ServeHTTP upgrades the request and hands the channel to the call handler
func (s *MediaStreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callSid := r.URL.Query().Get(CallSidParam)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed: %v", err)
		return
	}

	s.logger.Info("client connected (call_sid=%q, remote=%s)", callSid, r.RemoteAddr)

	ch := NewWebSocketChannel(conn, ChannelConfig{
		Name:         "twilio",
		Serializer:   serializers.NewTwilioFrameSerializer(),
		WriteTimeout: s.config.WriteTimeout,
		ReadLimit:    s.config.ReadLimit,
	})
	s.handler(r.Context(), callSid, ch)
}
