package processors

import (
	"context"
	"errors"
	"fmt"

	"github.com/square-key-labs/strawgo-callbridge/src/audio"
	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/metrics"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// InboundConfig holds configuration for the inbound relay
type InboundConfig struct {
	Format          audio.Format // caller audio encoding, for accounting
	MaxFramesPerSec int          // 0 disables the limiter
	BurstSeconds    int
}

// InboundRelay forwards caller audio from the telephony stream to the AI
// session and publishes the stream sid when the stream starts.
type InboundRelay struct {
	session   *CallSession
	telephony transports.Channel
	ai        transports.Channel
	config    InboundConfig
	limiter   *inboundLimiter
	logger    *logger.Logger
}

// NewInboundRelay creates the telephony -> AI relay
func NewInboundRelay(session *CallSession, telephony, ai transports.Channel, config InboundConfig) *InboundRelay {
	return &InboundRelay{
		session:   session,
		telephony: telephony,
		ai:        ai,
		config:    config,
		limiter:   newInboundLimiter(nil, config.MaxFramesPerSec, config.BurstSeconds),
		logger:    logger.WithPrefix("InboundRelay").WithField("call_sid", session.CallSid),
	}
}

func (r *InboundRelay) Name() string {
	return "InboundRelay"
}

// Run reads the telephony stream until it ends. A disconnect is the normal
// end of a call: the AI session is closed and Run returns nil. A broken AI
// connection ends Run with an error.
func (r *InboundRelay) Run(ctx context.Context) error {
	direction := frames.Inbound.String()

	for {
		frame, err := r.telephony.ReadFrame()
		if err != nil {
			if errors.Is(err, serializers.ErrMalformed) {
				r.logger.Warn("skipping malformed message: %v", err)
				metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindMalformed).Inc()
				continue
			}

			if errors.Is(err, transports.ErrChannelClosed) || ctx.Err() != nil {
				r.logger.Info("telephony stream closed")
			} else {
				r.logger.Info("telephony stream disconnected: %v", err)
			}
			if r.ai.IsOpen() {
				if cerr := r.ai.Close(); cerr != nil {
					r.logger.Debug("closing AI session: %v", cerr)
				}
			}
			return nil
		}

		switch f := frame.(type) {
		case *frames.InputAudioFrame:
			if err := r.forwardAudio(f, direction); err != nil {
				return fmt.Errorf("AI session: %w", err)
			}

		case *frames.StreamStartFrame:
			if r.session.SetStreamSid(f.StreamSid) {
				r.logger.Info("incoming stream has started %s", f.StreamSid)
			}

		case *frames.StreamConnectedFrame:
			r.logger.Debug("media stream connected (protocol=%s)", f.Protocol)

		case *frames.StreamStopFrame:
			r.logger.Info("stream %s stopped", f.StreamSid)

		case *frames.MarkFrame:
			r.logger.Debug("mark %q played", f.MarkName)

		default:
			r.logger.Debug("ignoring %s", frame.Name())
		}
	}
}

// forwardAudio returns an error only when the AI connection broke and the
// call cannot continue.
func (r *InboundRelay) forwardAudio(f *frames.InputAudioFrame, direction string) error {
	if !r.ai.IsOpen() {
		metrics.FramesDroppedTotal.WithLabelValues(direction, "ai_closed").Inc()
		return nil
	}
	if !r.limiter.Allow() {
		metrics.FramesDroppedTotal.WithLabelValues(direction, "rate_limited").Inc()
		return nil
	}

	if err := r.ai.WriteFrame(frames.NewAppendAudioFrame(f.Audio)); err != nil {
		if errors.Is(err, transports.ErrChannelClosed) {
			metrics.FramesDroppedTotal.WithLabelValues(direction, "ai_closed").Inc()
			return nil
		}
		r.logger.Error("failed to forward audio: %v", err)
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindWrite).Inc()
		if errors.Is(err, transports.ErrChannelBroken) {
			return err
		}
		return nil
	}

	metrics.FramesRelayedTotal.WithLabelValues(direction, "audio").Inc()
	metrics.AudioSecondsTotal.WithLabelValues(direction).Add(r.config.Format.Duration(len(f.Audio)).Seconds())
	return nil
}
