package stream

import (
	"encoding/json"
	"strings"

	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
)

// Demux splits a complete framed response back into citations and answer
// text. The envelope may sit anywhere in the accumulated stream; text on
// either side of it is answer text in arrival order. Streams without a
// well-formed envelope degrade gracefully: the whole input is returned
// as answer text with no citations. Only the first envelope is
// interpreted; marker sequences appearing later are left untouched.
//
// The payload is read as one JSON array rather than by scanning for the
// end marker, so marker sequences inside citation content cannot cut
// the envelope short.
func Demux(raw string) ([]retrieval.Citation, string) {
	start := strings.Index(raw, CitationsMarker)
	if start < 0 {
		return nil, raw
	}

	rest := raw[start+len(CitationsMarker):]
	dec := json.NewDecoder(strings.NewReader(rest))
	var citations []retrieval.Citation
	if err := dec.Decode(&citations); err != nil {
		return nil, raw
	}

	tail := rest[dec.InputOffset():]
	if !strings.HasPrefix(tail, EndCitationsMarker) {
		return nil, raw
	}
	if citations == nil {
		citations = []retrieval.Citation{}
	}

	return citations, raw[:start] + tail[len(EndCitationsMarker):]
}
