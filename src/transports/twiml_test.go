package transports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	callSid string
	issue   string
	err     error
}

func (s *recordingSink) Put(_ context.Context, callSid, issue string) error {
	s.callSid, s.issue = callSid, issue
	return s.err
}

func TestTwiMLHandler_UsesRequestHost(t *testing.T) {
	h := NewTwiMLHandler(TwiMLConfig{MediaPath: "/media-stream", Greeting: "Please hold."})

	req := httptest.NewRequest(http.MethodPost, "/outgoing-call",
		strings.NewReader(url.Values{"CallSid": {"CA123"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Host = "relay.example.com"
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<Say>Please hold.</Say>")
	assert.Contains(t, body, `<Pause length="1"/>`)
	assert.Contains(t, body, `<Stream url="wss://relay.example.com/media-stream?call_sid=CA123"/>`)
}

func TestTwiMLHandler_PublicURL(t *testing.T) {
	h := NewTwiMLHandler(TwiMLConfig{PublicURL: "https://abc123.ngrok.io", MediaPath: "/media-stream"})

	req := httptest.NewRequest(http.MethodGet, "/outgoing-call?CallSid=CA9", nil)
	req.Host = "localhost:5050"

	assert.Equal(t, "wss://abc123.ngrok.io/media-stream?call_sid=CA9", h.StreamURL(req, "CA9"))
}

func TestTwiMLHandler_MethodNotAllowed(t *testing.T) {
	h := NewTwiMLHandler(TwiMLConfig{MediaPath: "/media-stream"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/outgoing-call", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestContextHandler(t *testing.T) {
	form := func(v url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/call-context", strings.NewReader(v.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("stores context", func(t *testing.T) {
		sink := &recordingSink{}
		rec := httptest.NewRecorder()
		NewContextHandler(sink).ServeHTTP(rec, form(url.Values{"call_sid": {"CA123"}, "context": {"billing dispute on invoice 881"}}))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "CA123", sink.callSid)
		assert.Equal(t, "billing dispute on invoice 881", sink.issue)
	})

	t.Run("missing call sid", func(t *testing.T) {
		sink := &recordingSink{}
		rec := httptest.NewRecorder()
		NewContextHandler(sink).ServeHTTP(rec, form(url.Values{"context": {"x"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, sink.callSid)
	})

	t.Run("store failure", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("redis down")}
		rec := httptest.NewRecorder()
		NewContextHandler(sink).ServeHTTP(rec, form(url.Values{"call_sid": {"CA1"}, "context": {"x"}}))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewContextHandler(&recordingSink{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/call-context", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
