package processors

import (
	"context"
	"errors"
	"fmt"

	"github.com/square-key-labs/strawgo-callbridge/src/audio"
	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/interruptions"
	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/metrics"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// Realtime event types worth logging at info level
var logEventTypes = map[string]bool{
	"response.content.done":             true,
	"rate_limits.updated":               true,
	"response.done":                     true,
	"input_audio_buffer.committed":      true,
	"input_audio_buffer.speech_stopped": true,
	"input_audio_buffer.speech_started": true,
	"session.created":                   true,
}

// OutboundConfig holds configuration for the outbound relay
type OutboundConfig struct {
	Format audio.Format // AI audio encoding, for accounting
}

// OutboundRelay forwards AI audio to the telephony stream and runs the
// barge-in protocol when the caller starts talking.
type OutboundRelay struct {
	session   *CallSession
	ai        transports.Channel
	telephony transports.Channel
	config    OutboundConfig
	bargeIn   *interruptions.BargeIn
	logger    *logger.Logger
}

// NewOutboundRelay creates the AI -> telephony relay
func NewOutboundRelay(session *CallSession, ai, telephony transports.Channel, config OutboundConfig) *OutboundRelay {
	return &OutboundRelay{
		session:   session,
		ai:        ai,
		telephony: telephony,
		config:    config,
		bargeIn:   interruptions.NewBargeIn(),
		logger:    logger.WithPrefix("OutboundRelay").WithField("call_sid", session.CallSid),
	}
}

func (r *OutboundRelay) Name() string {
	return "OutboundRelay"
}

// Run reads AI events until the session ends. Events are handled one at a
// time, so an interruption completes before the next delta is looked at.
// It returns nil when the session was closed locally or normally.
func (r *OutboundRelay) Run(ctx context.Context) error {
	for {
		frame, err := r.ai.ReadFrame()
		if err != nil {
			if errors.Is(err, serializers.ErrMalformed) {
				r.logger.Warn("skipping malformed event: %v", err)
				metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindMalformed).Inc()
				continue
			}
			if errors.Is(err, transports.ErrChannelClosed) || ctx.Err() != nil {
				r.logger.Info("AI session closed")
				return nil
			}
			r.logger.Error("AI session failed: %v", err)
			metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindRead).Inc()
			return fmt.Errorf("AI session: %w", err)
		}

		switch f := frame.(type) {
		case *frames.AudioDeltaFrame:
			if err := r.forwardAudio(f); err != nil {
				return fmt.Errorf("telephony: %w", err)
			}

		case *frames.SpeechStartedFrame:
			r.logger.Info("speech started at %dms", f.AudioStartMs)
			if err := r.interrupt(); err != nil {
				return err
			}

		case *frames.SessionCreatedFrame:
			r.session.SetAISessionID(f.SessionID)
			r.logger.Info("session created %s (model=%s)", f.SessionID, f.Model)

		case *frames.SessionUpdatedFrame:
			r.logger.Info("session updated successfully (voice=%s)", f.Session.Voice)

		case *frames.ItemCreatedFrame:
			r.logger.Info("conversation item created %s (role=%s)", f.ItemID, f.Role)

		case *frames.ResponseCreatedFrame:
			r.bargeIn.Begin(f.ResponseID)
			r.logger.Debug("response %s created", f.ResponseID)

		case *frames.ResponseDoneFrame:
			r.bargeIn.Done(f.ResponseID)
			r.logger.Info("response %s done (status=%s)", f.ResponseID, f.Status)

		case *frames.ErrorEventFrame:
			r.logger.Error("AI session error: type=%s code=%s message=%s", f.Type, f.Code, f.Message)
			metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindProvider).Inc()

		case *frames.InfoFrame:
			if logEventTypes[f.EventType] {
				r.logger.Info("received event: %s", f.EventType)
			} else {
				r.logger.Debug("received event: %s", f.EventType)
			}

		default:
			r.logger.Debug("ignoring %s", frame.Name())
		}
	}
}

// forwardAudio returns an error only when the telephony connection broke
func (r *OutboundRelay) forwardAudio(f *frames.AudioDeltaFrame) error {
	direction := frames.Outbound.String()
	if len(f.Audio) == 0 {
		return nil
	}
	if !r.bargeIn.Admit(f.ResponseID) {
		metrics.FramesDroppedTotal.WithLabelValues(direction, "interrupted").Inc()
		return nil
	}

	streamSid, ok := r.session.StreamSid()
	if !ok {
		r.logger.Error("dropping audio delta: %v", ErrStreamNotStarted)
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindStreamNotStarted).Inc()
		metrics.FramesDroppedTotal.WithLabelValues(direction, "stream_not_started").Inc()
		return nil
	}

	if err := r.telephony.WriteFrame(frames.NewOutputAudioFrame(streamSid, f.Audio)); err != nil {
		if errors.Is(err, transports.ErrChannelClosed) {
			metrics.FramesDroppedTotal.WithLabelValues(direction, "telephony_closed").Inc()
			return nil
		}
		r.logger.Error("error processing audio data: %v", err)
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

// interrupt clears audio buffered at the telephony side, then cancels the
// in-flight response. Both writes finish before the caller reads the next
// event. A broken connection on either side is returned.
func (r *OutboundRelay) interrupt() error {
	cancelled := r.bargeIn.Interrupt()
	metrics.InterruptionsTotal.Inc()

	if streamSid, ok := r.session.StreamSid(); ok {
		if err := r.telephony.WriteFrame(frames.NewClearFrame(streamSid)); err != nil {
			r.logger.Error("failed to clear telephony audio: %v", err)
			metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindWrite).Inc()
			if errors.Is(err, transports.ErrChannelBroken) {
				return fmt.Errorf("telephony: %w", err)
			}
		} else {
			metrics.FramesRelayedTotal.WithLabelValues(frames.Outbound.String(), "clear").Inc()
		}
	} else {
		r.logger.Warn("skipping clear: %v", ErrStreamNotStarted)
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindStreamNotStarted).Inc()
	}

	r.logger.Info("cancelling AI speech (response=%q)", cancelled)
	if err := r.ai.WriteFrame(frames.NewResponseCancelFrame()); err != nil {
		r.logger.Error("failed to cancel response: %v", err)
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindWrite).Inc()
		if errors.Is(err, transports.ErrChannelBroken) {
			return fmt.Errorf("AI session: %w", err)
		}
		return nil
	}
	metrics.FramesRelayedTotal.WithLabelValues(frames.Inbound.String(), "cancel").Inc()
	return nil
}

// State returns the barge-in state
func (r *OutboundRelay) State() interruptions.State {
	return r.bargeIn.State()
}
