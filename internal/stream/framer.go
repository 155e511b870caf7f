// Package stream frames chat responses so a single byte stream can carry
// structured citations ahead of the freeform answer. The envelope
//
//	__CITATIONS__<json array>__END_CITATIONS__<answer bytes...>
//
// is written exactly once at the start of the stream; everything after the
// end marker is raw answer text, flushed fragment by fragment.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	CitationsMarker    = "__CITATIONS__"
	EndCitationsMarker = "__END_CITATIONS__"
)

// Marker sequences inside citation content would end the envelope early,
// so the framer rewrites their underscores as _ escapes. The JSON
// stays valid and decodes back to the original text.
var markerEscapes = [][2][]byte{
	{[]byte(EndCitationsMarker), []byte(strings.ReplaceAll(EndCitationsMarker, "_", `_`))},
	{[]byte(CitationsMarker), []byte(strings.ReplaceAll(CitationsMarker, "_", `_`))},
}

func escapeMarkers(payload []byte) []byte {
	for _, e := range markerEscapes {
		payload = bytes.ReplaceAll(payload, e[0], e[1])
	}
	return payload
}

var ErrEnvelopeWritten = errors.New("stream: citations envelope already written")

// Flusher is the subset of http.Flusher the framer needs. A nil flusher
// is fine for buffered writers.
type Flusher interface {
	Flush()
}

// Framer writes the citation envelope followed by answer fragments to a
// single writer, flushing after every write so tokens reach the client
// as they arrive.
type Framer struct {
	w         io.Writer
	flusher   Flusher
	enveloped bool
}

func NewFramer(w io.Writer) *Framer {
	f := &Framer{w: w}
	if fl, ok := w.(Flusher); ok {
		f.flusher = fl
	}
	return f
}

// WriteCitations emits the envelope. It must be called before any
// fragment and at most once; citations may be empty, in which case an
// empty JSON array is framed.
func (f *Framer) WriteCitations(citations any) error {
	if f.enveloped {
		return ErrEnvelopeWritten
	}

	payload, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}
	if string(payload) == "null" {
		payload = []byte("[]")
	}
	payload = escapeMarkers(payload)

	if _, err := fmt.Fprintf(f.w, "%s%s%s", CitationsMarker, payload, EndCitationsMarker); err != nil {
		return err
	}
	f.enveloped = true
	f.flush()
	return nil
}

// WriteFragment appends a piece of the answer. The envelope must have
// been written first so clients can rely on its position.
func (f *Framer) WriteFragment(fragment string) error {
	if !f.enveloped {
		if err := f.WriteCitations(nil); err != nil {
			return err
		}
	}
	if fragment == "" {
		return nil
	}
	if _, err := io.WriteString(f.w, fragment); err != nil {
		return err
	}
	f.flush()
	return nil
}

// Started reports whether any bytes have been written. Callers use it
// to decide whether an error can still become a proper HTTP error
// response.
func (f *Framer) Started() bool {
	return f.enveloped
}

func (f *Framer) flush() {
	if f.flusher != nil {
		f.flusher.Flush()
	}
}
