package transports

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
)

// TwiMLConfig holds configuration for the call webhook
type TwiMLConfig struct {
	PublicURL string // externally reachable base URL; request Host is used when empty
	MediaPath string
	Greeting  string
}

// TwiMLHandler answers Twilio's call webhook with a document that connects
// the call audio to the media stream endpoint.
type TwiMLHandler struct {
	config TwiMLConfig
	logger *logger.Logger
}

// NewTwiMLHandler creates the call webhook handler
func NewTwiMLHandler(config TwiMLConfig) *TwiMLHandler {
	return &TwiMLHandler{config: config, logger: logger.WithPrefix("TwiML")}
}

// StreamURL returns the wss URL Twilio should open for callSid
func (h *TwiMLHandler) StreamURL(r *http.Request, callSid string) string {
	host := r.Host
	if h.config.PublicURL != "" {
		if u, err := url.Parse(h.config.PublicURL); err == nil && u.Host != "" {
			host = u.Host
		} else {
			host = strings.TrimSuffix(h.config.PublicURL, "/")
		}
	}
	return fmt.Sprintf("wss://%s%s?%s=%s", host, h.config.MediaPath, CallSidParam, url.QueryEscape(callSid))
}

func (h *TwiMLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSid := r.FormValue("CallSid")
	h.logger.Info("call webhook for %s", callSid)

	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Say>%s</Say>
    <Pause length="1"/>
    <Connect>
        <Stream url="%s"/>
    </Connect>
</Response>`, html.EscapeString(h.config.Greeting), html.EscapeString(h.StreamURL(r, callSid)))

	w.Header().Set("Content-Type", "application/xml")
	if _, err := w.Write([]byte(twiml)); err != nil {
		h.logger.Error("failed to write TwiML: %v", err)
	}
}

// ContextSink receives call context registrations
type ContextSink interface {
	Put(ctx context.Context, callSid, issue string) error
}

// ContextHandler registers the issue text for a call about to be placed.
// Form fields: call_sid, context.
type ContextHandler struct {
	sink   ContextSink
	logger *logger.Logger
}

// NewContextHandler creates the context registration handler
func NewContextHandler(sink ContextSink) *ContextHandler {
	return &ContextHandler{sink: sink, logger: logger.WithPrefix("CallContext")}
}

func (h *ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSid := strings.TrimSpace(r.FormValue("call_sid"))
	if callSid == "" {
		http.Error(w, "call_sid is required", http.StatusBadRequest)
		return
	}

	if err := h.sink.Put(r.Context(), callSid, r.FormValue("context")); err != nil {
		h.logger.Error("failed to store context for %s: %v", callSid, err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "failed to store context", status)
		return
	}

	h.logger.Info("registered context for call %s", callSid)
	w.WriteHeader(http.StatusNoContent)
}
