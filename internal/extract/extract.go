// Package extract infers identity fields from raw OCR fragments when no
// register document matches. Document layouts vary widely (label present or
// absent, value on the same line or the next, combined or separate fields),
// so extraction runs an ordered chain of heuristics sharing one validation
// predicate. Each stage only fills fields still empty; an accepted field is
// never overwritten by a later stage.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kozaktomas/id-verifier/internal/recognizer"
)

// Fields is the extraction result. Empty strings mean the field could not be
// determined.
type Fields struct {
	Surname   string `json:"nom,omitempty"`
	GivenName string `json:"prenom,omitempty"`
	Number    string `json:"numero_document,omitempty"`
}

// Vertical distance below which a fragment counts as the next line of a
// label, in pixel-equivalent units.
const proximityBound = 50.0

// Fragments below this recognition confidence are ignored by the statistical
// fallback, unless that would discard every fragment.
const confidenceFloor = 0.5

var surnameLabels = []string{"FAMILY NAME", "LAST NAME", "SURNAME", "NOM", "NAME"}
var givenNameLabels = []string{"FIRST NAME", "GIVEN NAME", "FORENAME", "PRENOMS", "PRENOM"}

// noiseKeywords are institutional and document-type words that never form a
// person name.
var noiseKeywords = []string{
	"REPUBLIQUE", "FRANCAISE", "REPUBLIC", "CARTE", "NATIONALE", "IDENTITE",
	"IDENTITY", "CARD", "PASSEPORT", "PASSPORT", "TITRE", "SEJOUR",
	"DOCUMENT", "SPECIMEN", "SEXE", "SEX", "SIGNATURE", "NATIONALITE",
	"NATIONALITY", "NAISSANCE", "BIRTH", "ADRESSE", "ADDRESS", "DOMICILE",
	"VALABLE", "DELIVRE", "EXPIRE", "PREFECTURE", "MAIRIE", "AUTORITE",
	"AUTHORITY", "GOUVERNEMENT",
}

var (
	dateLikeRe   = regexp.MustCompile(`\d{1,4}[./\-\s]\d{1,2}[./\-\s]\d{1,4}`)
	digitRe      = regexp.MustCompile(`[0-9]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	surnameLabelRe   = labelValueRegexp(surnameLabels)
	givenNameLabelRe = labelValueRegexp(givenNameLabels)

	// Matches any label keyword, used to cut captured values short when the
	// capture ran into the next labeled field on the same line.
	anyLabelRe = labelOnlyRegexp(append(append([]string{}, surnameLabels...), givenNameLabels...))

	titleCaser = cases.Title(language.French)
)

// labelValueRegexp builds a case-insensitive pattern matching any of the
// labels followed by a colon or space and a run of letters/spaces/hyphens.
func labelValueRegexp(labels []string) *regexp.Regexp {
	escaped := make([]string, len(labels))
	for i, l := range labels {
		escaped[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b[ \t]*:?[ \t]*([\p{L}][\p{L} \-']*)`)
}

func labelOnlyRegexp(labels []string) *regexp.Regexp {
	escaped := make([]string, len(labels))
	for i, l := range labels {
		escaped[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

// Extractor runs the heuristic chain over OCR fragments.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// state tracks partial results across stages.
type state struct {
	fragments []recognizer.Fragment

	surname   string
	givenName string

	// fragment index where each name was located, -1 when unknown
	surnameIdx   int
	givenNameIdx int

	// raw tokens consumed by name extraction, blocked from becoming the
	// document number
	consumed map[string]bool
}

// Extract infers surname, given name and document number from fragments.
// Fragments must be ordered top-to-bottom, then left-to-right (the
// recognizer guarantees this).
func (e *Extractor) Extract(fragments []recognizer.Fragment) Fields {
	st := &state{
		fragments:    fragments,
		surnameIdx:   -1,
		givenNameIdx: -1,
		consumed:     make(map[string]bool),
	}

	stages := []func(*state){
		e.labelRegexStage,
		e.lineAnchoredStage,
		e.crossFieldStage,
		e.combinedLineStage,
		e.confidenceFallbackStage,
	}
	for _, stage := range stages {
		if st.surname != "" && st.givenName != "" {
			break
		}
		stage(st)
	}

	number := e.findDocumentNumber(st)

	return Fields{
		Surname:   finalizeSurname(st.surname),
		GivenName: finalizeGivenName(st.givenName),
		Number:    number,
	}
}

// labelRegexStage searches the concatenated text for label-anchored values.
// Fragments are joined with newlines so a captured value cannot run past the
// fragment it was read from.
func (e *Extractor) labelRegexStage(st *state) {
	lines := make([]string, 0, len(st.fragments))
	for _, f := range st.fragments {
		if f.Text != "" {
			lines = append(lines, f.Text)
		}
	}
	text := strings.Join(lines, "\n")

	if st.surname == "" {
		if m := surnameLabelRe.FindStringSubmatch(text); m != nil {
			if candidate := trimToValue(m[1]); validSurname(candidate) {
				st.accept(&st.surname, candidate, -1)
			}
		}
	}
	if st.givenName == "" {
		if m := givenNameLabelRe.FindStringSubmatch(text); m != nil {
			if candidate := trimToValue(m[1]); validGivenName(candidate) {
				st.accept(&st.givenName, candidate, -1)
			}
		}
	}
}

// lineAnchoredStage scans fragments for label keywords, taking the value
// from the same fragment or, when the label stands alone, from the next
// fragment if it sits close enough below.
func (e *Extractor) lineAnchoredStage(st *state) {
	for i, frag := range st.fragments {
		upper := strings.ToUpper(frag.Text)

		if st.surname == "" && containsLabel(upper, surnameLabels) && !containsLabel(upper, givenNameLabels) {
			if candidate := e.valueForLabel(st, i, surnameLabelRe); validSurname(candidate) {
				st.accept(&st.surname, candidate, i)
			}
		}
		if st.givenName == "" && containsLabel(upper, givenNameLabels) {
			if candidate := e.valueForLabel(st, i, givenNameLabelRe); validGivenName(candidate) {
				st.accept(&st.givenName, candidate, i)
			}
		}
		if st.surname != "" && st.givenName != "" {
			return
		}
	}
}

// valueForLabel extracts the value following a label inside fragment i, or
// falls back to the next fragment when the label has no same-line value and
// the next fragment is vertically close.
func (e *Extractor) valueForLabel(st *state, i int, re *regexp.Regexp) string {
	frag := st.fragments[i]
	if m := re.FindStringSubmatch(frag.Text); m != nil {
		if v := trimToValue(m[1]); v != "" {
			return v
		}
	}

	// Label with nothing after it: look one fragment down.
	if i+1 >= len(st.fragments) {
		return ""
	}
	next := st.fragments[i+1]
	if next.Top()-frag.Top() > proximityBound {
		return ""
	}
	return trimToValue(next.Text)
}

// crossFieldStage looks for the missing half of a located name pair in the
// fragments immediately around the one already found.
func (e *Extractor) crossFieldStage(st *state) {
	const window = 2

	search := func(center int, valid func(string) bool) string {
		for offset := 1; offset <= window; offset++ {
			for _, idx := range []int{center + offset, center - offset} {
				if idx < 0 || idx >= len(st.fragments) {
					continue
				}
				candidate := trimToValue(st.fragments[idx].Text)
				if candidate == "" || strings.EqualFold(candidate, st.surname) || strings.EqualFold(candidate, st.givenName) {
					continue
				}
				if valid(candidate) {
					return candidate
				}
			}
		}
		return ""
	}

	if st.surname != "" && st.givenName == "" {
		if center := st.anchor(st.surnameIdx, st.surname); center >= 0 {
			if candidate := search(center, validGivenName); candidate != "" {
				st.accept(&st.givenName, candidate, -1)
			}
		}
	}
	if st.givenName != "" && st.surname == "" {
		if center := st.anchor(st.givenNameIdx, st.givenName); center >= 0 {
			if candidate := search(center, validSurname); candidate != "" {
				st.accept(&st.surname, candidate, -1)
			}
		}
	}
}

// combinedLineStage handles "DUPONT, Jean" style lines where both names
// share one fragment.
func (e *Extractor) combinedLineStage(st *state) {
	if st.surname != "" && st.givenName != "" {
		return
	}

	for i, frag := range st.fragments {
		parts := splitCombined(frag.Text)
		if len(parts) < 2 {
			continue
		}

		first, second := trimToValue(parts[0]), trimToValue(parts[1])
		if st.surname == "" && validSurname(first) {
			st.accept(&st.surname, first, i)
			if st.givenName == "" && validGivenName(second) {
				st.accept(&st.givenName, second, i)
			}
			return
		}
	}
}

// confidenceFallbackStage guesses names from the highest-confidence
// fragments when no label-based stage succeeded.
func (e *Extractor) confidenceFallbackStage(st *state) {
	if st.surname != "" && st.givenName != "" {
		return
	}

	ranked := rankByConfidence(st.fragments)

	if st.surname == "" {
		for _, frag := range ranked {
			candidate := trimToValue(frag.Text)
			if candidate != "" && isAllUppercase(candidate) && validSurname(candidate) {
				st.accept(&st.surname, candidate, -1)
				break
			}
		}
	}
	if st.givenName == "" {
		for _, frag := range ranked {
			candidate := trimToValue(frag.Text)
			if candidate == "" || !validGivenName(candidate) {
				continue
			}
			if strings.EqualFold(candidate, st.surname) {
				continue
			}
			st.accept(&st.givenName, candidate, -1)
			break
		}
	}
}

// findDocumentNumber scans tokens for a plausible document number: contains
// digits, at least 6 characters, not date-like, not already consumed by name
// extraction.
func (e *Extractor) findDocumentNumber(st *state) string {
	for _, frag := range st.fragments {
		for _, token := range strings.Fields(frag.Text) {
			token = strings.Trim(token, ".,;:")
			if len(token) < 6 {
				continue
			}
			if !digitRe.MatchString(token) {
				continue
			}
			if dateLikeRe.MatchString(token) {
				continue
			}
			if st.consumed[strings.ToUpper(token)] {
				continue
			}
			return token
		}
	}
	return ""
}

// anchor returns the known fragment index for a name, or searches the
// fragments for it when the name came from the concatenated-text stage.
func (st *state) anchor(idx int, value string) int {
	if idx >= 0 || value == "" {
		return idx
	}
	upper := strings.ToUpper(value)
	for i, f := range st.fragments {
		if strings.Contains(strings.ToUpper(f.Text), upper) {
			return i
		}
	}
	return -1
}

// accept records a validated field value and marks its tokens consumed.
func (st *state) accept(field *string, value string, idx int) {
	*field = value
	for _, token := range strings.Fields(value) {
		st.consumed[strings.ToUpper(token)] = true
	}
	if idx >= 0 {
		if field == &st.surname {
			st.surnameIdx = idx
		} else {
			st.givenNameIdx = idx
		}
	}
}

// trimToValue keeps the leading run of letters, spaces, hyphens and
// apostrophes, collapses whitespace and trims. A value is cut short at the
// next label keyword so "DUPONT PRENOM Jean" yields "DUPONT".
func trimToValue(s string) string {
	if loc := anyLabelRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			b.WriteRune(r)
			continue
		}
		break
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// validGivenName is the shared validation predicate: no digit, not
// date-like, no noise keyword, at least 2 letters.
func validGivenName(s string) bool {
	if s == "" {
		return false
	}
	if digitRe.MatchString(s) {
		return false
	}
	if dateLikeRe.MatchString(s) {
		return false
	}
	if containsNoise(s) {
		return false
	}
	return letterCount(s) >= 2
}

// validSurname additionally requires at least half the letters uppercase,
// distinguishing an all-caps surname field from mixed-case running text.
func validSurname(s string) bool {
	if !validGivenName(s) {
		return false
	}
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && upper*2 >= letters
}

func containsNoise(s string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range noiseKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func containsLabel(upper string, labels []string) bool {
	for _, l := range labels {
		if idx := strings.Index(upper, l); idx >= 0 {
			// Reject matches inside a longer word ("NOM" in "PRENOM").
			if idx > 0 && isWordRune(rune(upper[idx-1])) {
				continue
			}
			end := idx + len(l)
			if end < len(upper) && isWordRune(rune(upper[end])) {
				continue
			}
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func isAllUppercase(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// splitCombined splits a line on comma or colon, else on whitespace, into
// trimmed parts.
func splitCombined(s string) []string {
	var raw []string
	switch {
	case strings.ContainsAny(s, ",:"):
		raw = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	default:
		raw = strings.Fields(s)
	}

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// rankByConfidence sorts fragments by confidence descending, excluding
// low-confidence ones unless that would exclude everything.
func rankByConfidence(fragments []recognizer.Fragment) []recognizer.Fragment {
	kept := make([]recognizer.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Confidence >= confidenceFloor {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, fragments...)
	}

	// Stable insertion sort keeps positional order among equal confidences.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j].Confidence > kept[j-1].Confidence; j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}
	return kept
}

// finalizeSurname forces the surname to uppercase. Values failing validation
// are dropped rather than returned malformed.
func finalizeSurname(s string) string {
	if s == "" || !validSurname(s) {
		return ""
	}
	return strings.ToUpper(whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " "))
}

// finalizeGivenName title-cases the given name per word.
func finalizeGivenName(s string) string {
	if s == "" || !validGivenName(s) {
		return ""
	}
	return titleCaser.String(strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")))
}
