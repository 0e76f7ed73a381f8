package textmatch

import (
	"sort"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// Field names used in the weight table. They match the register column
// names so weights can be configured per column.
const (
	FieldSurname     = "nom"
	FieldGivenName   = "prenom"
	FieldNumber      = "numero_document"
	FieldNationality = "nationalite"
	FieldBirthDate   = "date_de_naissance"
	FieldExpiryDate  = "date_d_expiration"
)

// Candidate is one register document scored against OCR text.
type Candidate struct {
	DocumentID  int64          `json:"document_id"`
	Number      string         `json:"number"`
	Surname     string         `json:"surname"`
	GivenName   string         `json:"given_name"`
	FieldScores map[string]int `json:"field_scores"`
	GlobalScore float64        `json:"global_score"`
}

// Strength labels derived from the global score.
const (
	StrengthStrong = "fort"
	StrengthMedium = "moyen"
	StrengthWeak   = "faible"
)

// Strength returns the match strength label for a global score.
func Strength(score float64) string {
	switch {
	case score >= 85:
		return StrengthStrong
	case score >= 70:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// Matcher scores documents against normalized OCR text using a weighted
// token-set similarity per field.
type Matcher struct {
	weights   map[string]float64
	threshold float64
}

// NewMatcher creates a matcher with the given field weight table and
// acceptance threshold (0..100).
func NewMatcher(weights map[string]float64, threshold float64) *Matcher {
	return &Matcher{weights: weights, threshold: threshold}
}

// Match scores every document and returns the candidates clearing the
// threshold, sorted by global score descending. Ties keep document order.
// The OCR text may be raw; it is normalized internally.
func (m *Matcher) Match(ocrText string, documents []database.Document) []Candidate {
	text := Normalize(ocrText)
	if text == "" {
		return nil
	}
	hasDigits := ContainsDigits(text)

	var candidates []Candidate
	for i := range documents {
		doc := &documents[i]
		cand, ok := m.score(text, hasDigits, doc)
		if ok {
			candidates = append(candidates, cand)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].GlobalScore > candidates[j].GlobalScore
	})
	return candidates
}

// score computes the weighted global score for one document. Date fields are
// skipped entirely when the OCR text carries no digits, so unrelated token
// overlap cannot inflate them.
func (m *Matcher) score(text string, hasDigits bool, doc *database.Document) (Candidate, bool) {
	fieldScores := make(map[string]int)
	var weightedSum, totalWeight float64

	for field, weight := range m.weights {
		if weight <= 0 {
			continue
		}
		value, isDate := fieldValue(doc, field)
		if value == "" {
			continue
		}
		if isDate && !hasDigits {
			continue
		}

		score := fuzzy.TokenSetRatio(text, Normalize(value))
		fieldScores[field] = score
		weightedSum += float64(score) * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return Candidate{}, false
	}

	global := weightedSum / totalWeight
	if global < m.threshold {
		return Candidate{}, false
	}

	return Candidate{
		DocumentID:  doc.ID,
		Number:      doc.Number,
		Surname:     doc.Surname,
		GivenName:   doc.GivenName,
		FieldScores: fieldScores,
		GlobalScore: global,
	}, true
}

// fieldValue returns the comparable string for a weighted field, and whether
// the field is a date. Dates are rendered ISO so digit groups line up with
// what OCR produces.
func fieldValue(doc *database.Document, field string) (value string, isDate bool) {
	switch field {
	case FieldSurname:
		return doc.Surname, false
	case FieldGivenName:
		return doc.GivenName, false
	case FieldNumber:
		return doc.Number, false
	case FieldNationality:
		return doc.Nationality, false
	case FieldBirthDate:
		return formatDate(doc.BirthDate), true
	case FieldExpiryDate:
		return formatDate(doc.ExpiryDate), true
	}
	return "", false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
