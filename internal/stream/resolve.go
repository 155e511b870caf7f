package stream

import (
	"regexp"
	"strconv"

	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
)

var citationToken = regexp.MustCompile(`\[(\d+)\]`)

// Reference ties a bracketed [n] token in answer text to the citation
// it names.
type Reference struct {
	Marker   string
	Offset   int
	Citation retrieval.Citation
}

// ResolveCitations scans answer text for bracketed [n] tokens and maps
// each to the citation whose id is n. Numbers with no matching citation
// are skipped; they stay literal text in the answer, which is never
// modified.
func ResolveCitations(answer string, citations []retrieval.Citation) []Reference {
	byID := make(map[int]retrieval.Citation, len(citations))
	for _, c := range citations {
		byID[c.ID] = c
	}

	var refs []Reference
	for _, m := range citationToken.FindAllStringSubmatchIndex(answer, -1) {
		id, err := strconv.Atoi(answer[m[2]:m[3]])
		if err != nil {
			continue
		}
		c, ok := byID[id]
		if !ok {
			continue
		}
		refs = append(refs, Reference{
			Marker:   answer[m[0]:m[1]],
			Offset:   m[0],
			Citation: c,
		})
	}
	return refs
}
