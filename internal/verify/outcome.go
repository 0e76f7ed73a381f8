package verify

import (
	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/extract"
	"github.com/kozaktomas/id-verifier/internal/textmatch"
)

// Outcome is the terminal result of one document verification. Exactly one
// of the concrete types below is returned per request.
type Outcome interface {
	// DataResult maps the outcome to the persisted result vocabulary.
	DataResult() string

	outcome()
}

// Matched holds the accepted register document and the full ranked candidate
// list so callers can render match strength per field.
type Matched struct {
	DocumentID int64                 `json:"document_id"`
	Strength   string                `json:"strength"`
	Candidates []textmatch.Candidate `json:"candidates"`
}

// NotMatched means scoring ran against a non-empty register and no candidate
// cleared the threshold.
type NotMatched struct{}

// External carries the fields inferred by heuristic extraction when the
// register cannot answer. Fields are returned regardless of confidence.
type External struct {
	Fields extract.Fields `json:"fields"`
}

// Failed means no text was recognized at all, or the upstream image was
// unreadable. Local to the request; nothing shared is affected.
type Failed struct {
	Reason string `json:"reason"`
}

func (Matched) outcome()    {}
func (NotMatched) outcome() {}
func (External) outcome()   {}
func (Failed) outcome()     {}

func (Matched) DataResult() string    { return database.DataResultOK }
func (NotMatched) DataResult() string { return database.DataResultFailed }
func (External) DataResult() string   { return database.DataResultExternal }
func (Failed) DataResult() string     { return database.DataResultFailed }
