// Package audio describes the audio encodings a realtime session can be
// configured with and converts payload sizes to playback time.
package audio

import (
	"fmt"
	"strings"
	"time"
)

// Format is an audio encoding as named by the realtime session
type Format struct {
	Name           string
	SampleRate     int // Hz
	BytesPerSample int
}

var (
	// G711Ulaw is 8kHz mu-law, the encoding Twilio Media Streams carry
	G711Ulaw = Format{Name: "g711_ulaw", SampleRate: 8000, BytesPerSample: 1}
	// G711Alaw is 8kHz A-law
	G711Alaw = Format{Name: "g711_alaw", SampleRate: 8000, BytesPerSample: 1}
	// PCM16 is 24kHz 16-bit little-endian mono
	PCM16 = Format{Name: "pcm16", SampleRate: 24000, BytesPerSample: 2}
)

// ParseFormat resolves a format name. Codec aliases used elsewhere for the
// same encodings are accepted.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "g711_ulaw", "ulaw", "mulaw", "pcmu":
		return G711Ulaw, nil
	case "g711_alaw", "alaw", "pcma":
		return G711Alaw, nil
	case "pcm16", "pcm", "linear16":
		return PCM16, nil
	default:
		return Format{}, fmt.Errorf("unsupported audio format: %s", name)
	}
}

// Duration returns the playback time of n bytes in this format
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.BytesPerSample <= 0 || n <= 0 {
		return 0
	}
	samples := int64(n / f.BytesPerSample)
	return time.Duration(samples * int64(time.Second) / int64(f.SampleRate))
}

func (f Format) String() string {
	return f.Name
}
