package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/square-key-labs/strawgo-callbridge/src/audio"
	"github.com/square-key-labs/strawgo-callbridge/src/callcontext"
	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/metrics"
	"github.com/square-key-labs/strawgo-callbridge/src/processors"
	"github.com/square-key-labs/strawgo-callbridge/src/services/openai"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// Dialer opens an AI session channel
type Dialer interface {
	Dial(ctx context.Context) (transports.Channel, error)
}

// CallTaskConfig holds configuration for call tasks
type CallTaskConfig struct {
	Session         frames.SessionConfig // base session; Instructions is the base prompt
	InputFormat     audio.Format
	OutputFormat    audio.Format
	InboundMaxFPS   int
	InboundBurstSec int
}

// CallTask runs calls: it claims the call's context, opens and configures
// the AI session, then relays audio both ways until the call ends.
type CallTask struct {
	store   callcontext.Store
	dialer  Dialer
	config  CallTaskConfig
	tracker *Tracker
	logger  *logger.Logger

	// Event handlers
	onStarted  func(*processors.CallSession)
	onFinished func(*processors.CallSession, error)
}

// NewCallTask creates a call orchestrator. tracker may be nil.
func NewCallTask(store callcontext.Store, dialer Dialer, config CallTaskConfig, tracker *Tracker) *CallTask {
	return &CallTask{
		store:   store,
		dialer:  dialer,
		config:  config,
		tracker: tracker,
		logger:  logger.WithPrefix("CallTask"),
	}
}

// OnStarted sets a callback for when both relays are running
func (t *CallTask) OnStarted(callback func(*processors.CallSession)) {
	t.onStarted = callback
}

// OnFinished sets a callback for when a call has been torn down
func (t *CallTask) OnFinished(callback func(*processors.CallSession, error)) {
	t.onFinished = callback
}

// Run handles one call on an accepted telephony channel. Both channels are
// closed on every return path.
func (t *CallTask) Run(ctx context.Context, callSid string, telephony transports.Channel) (err error) {
	session := processors.NewCallSession(callSid)
	log := t.logger.WithField("call_sid", callSid).WithField("session", session.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unregister := t.tracker.Register(session.ID, cancel)
	defer unregister()

	metrics.CallsActive.Inc()
	defer func() {
		metrics.CallsActive.Dec()
		metrics.CallDurationSeconds.Observe(time.Since(session.StartedAt).Seconds())
		outcome := metrics.OutcomeCompleted
		if err != nil {
			outcome = metrics.OutcomeFailed
			log.Error("call failed: %v", err)
		} else {
			log.Info("call finished after %s", time.Since(session.StartedAt).Round(time.Millisecond))
		}
		metrics.CallsTotal.WithLabelValues(outcome).Inc()
		if t.onFinished != nil {
			t.onFinished(session, err)
		}
	}()

	defer func() {
		if cerr := telephony.Close(); cerr != nil {
			log.Debug("closing telephony: %v", cerr)
		}
	}()

	issue := t.takeContext(ctx, log, callSid)

	ai, err := t.dialer.Dial(ctx)
	if err != nil {
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindDial).Inc()
		return fmt.Errorf("failed to open AI session: %w", err)
	}
	defer func() {
		if cerr := ai.Close(); cerr != nil {
			log.Debug("closing AI session: %v", cerr)
		}
	}()

	if err := openai.Bootstrap(ai, t.config.Session, issue); err != nil {
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindBootstrap).Inc()
		return err
	}
	log.Debug("session update sent (context=%t)", issue != "")

	inbound := processors.NewInboundRelay(session, telephony, ai, processors.InboundConfig{
		Format:          t.config.InputFormat,
		MaxFramesPerSec: t.config.InboundMaxFPS,
		BurstSeconds:    t.config.InboundBurstSec,
	})
	outbound := processors.NewOutboundRelay(session, ai, telephony, processors.OutboundConfig{
		Format: t.config.OutputFormat,
	})

	if t.onStarted != nil {
		t.onStarted(session)
	}
	return NewPipeline([]processors.Relay{inbound, outbound}, telephony, ai).Run(ctx)
}

// takeContext claims the issue registered for callSid. A store failure is
// logged and the call proceeds without context.
func (t *CallTask) takeContext(ctx context.Context, log *logger.Logger, callSid string) string {
	issue, ok, err := t.store.TakeIfPresent(ctx, callSid)
	switch {
	case err != nil:
		log.Error("failed to read call context: %v", err)
		metrics.RelayErrorsTotal.WithLabelValues(metrics.ErrorKindContextStore).Inc()
		metrics.CallContextHits.WithLabelValues("error").Inc()
		return ""
	case ok:
		log.Info("retrieved context for call %s: %s", callSid, issue)
		metrics.CallContextHits.WithLabelValues("hit").Inc()
		return issue
	default:
		metrics.CallContextHits.WithLabelValues("miss").Inc()
		return ""
	}
}
