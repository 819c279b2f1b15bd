package result

import "encoding/json"

// Result is a single search hit.
type Result struct {
	noteID     string
	score      float64
	scored     bool
	highlights map[string][]string
	source     json.RawMessage
}

// New creates a search result. A nil score means the engine did not compute relevance
// (field sort without track_scores).
func New(noteID string, score *float64, highlights map[string][]string, source json.RawMessage) Result {
	r := Result{noteID: noteID, highlights: highlights, source: source}
	if score != nil {
		r.score = *score
		r.scored = true
	}
	return r
}

// NoteID returns the note identifier.
func (r *Result) NoteID() string { return r.noteID }

// Score returns the relevance score, 0 when unscored.
func (r *Result) Score() float64 { return r.score }

// Scored reports whether the engine returned a score for this hit.
func (r *Result) Scored() bool { return r.scored }

// Highlights returns fragments per field in engine order.
func (r *Result) Highlights() map[string][]string { return r.highlights }

// Source returns the opaque note payload.
func (r *Result) Source() json.RawMessage { return r.source }

// Page is a normalized result list with the engine-reported total.
type Page struct {
	Total   int64
	Results []Result
}
