package extract

import (
	"strings"
	"testing"

	"github.com/kozaktomas/id-verifier/internal/recognizer"
)

func frag(text string, y float64, confidence float64) recognizer.Fragment {
	return recognizer.Fragment{
		BBox: [4]recognizer.Point{
			{X: 0, Y: y}, {X: 100, Y: y}, {X: 100, Y: y + 20}, {X: 0, Y: y + 20},
		},
		Text:       text,
		Confidence: confidence,
	}
}

func TestExtract_LabeledFields(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM: DUPONT", 10, 0.9),
		frag("PRENOM Jean", 40, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "DUPONT" {
		t.Errorf("expected surname DUPONT, got %q", fields.Surname)
	}
	if fields.GivenName != "Jean" {
		t.Errorf("expected given name Jean, got %q", fields.GivenName)
	}
	if fields.Number != "" {
		t.Errorf("expected no document number, got %q", fields.Number)
	}
}

func TestExtract_LabelsOnOneLine(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM: DUPONT PRENOM Jean", 10, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "DUPONT" {
		t.Errorf("expected surname DUPONT, got %q", fields.Surname)
	}
	if fields.GivenName != "Jean" {
		t.Errorf("expected given name Jean, got %q", fields.GivenName)
	}
}

func TestExtract_EnglishLabels(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("SURNAME: GARCIA", 10, 0.9),
		frag("GIVEN NAME: Maria", 40, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "GARCIA" {
		t.Errorf("expected surname GARCIA, got %q", fields.Surname)
	}
	if fields.GivenName != "Maria" {
		t.Errorf("expected given name Maria, got %q", fields.GivenName)
	}
}

func TestExtract_ValueOnNextLine(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM", 10, 0.9),
		frag("DUPONT", 40, 0.9), // within the 50 unit proximity bound
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "DUPONT" {
		t.Errorf("expected surname DUPONT, got %q", fields.Surname)
	}
}

func TestExtract_NextLineTooFar(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM", 10, 0.9),
		frag("Unrelated text", 300, 0.9), // far below the label
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname == "UNRELATED TEXT" {
		t.Error("fragment beyond proximity bound must not be taken as value")
	}
}

func TestExtract_CombinedLine(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("DUPONT, Jean", 10, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "DUPONT" {
		t.Errorf("expected surname DUPONT, got %q", fields.Surname)
	}
	if fields.GivenName != "Jean" {
		t.Errorf("expected given name Jean, got %q", fields.GivenName)
	}
}

func TestExtract_ConfidenceFallback(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("blurry smudge", 10, 0.2),
		frag("MARTIN", 40, 0.95),
		frag("Claire", 70, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "MARTIN" {
		t.Errorf("expected surname MARTIN, got %q", fields.Surname)
	}
	if fields.GivenName != "Claire" {
		t.Errorf("expected given name Claire, got %q", fields.GivenName)
	}
}

func TestExtract_DocumentNumber(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM: DUPONT", 10, 0.9),
		frag("PRENOM Jean", 40, 0.9),
		frag("AB123456", 70, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Number != "AB123456" {
		t.Errorf("expected number AB123456, got %q", fields.Number)
	}
}

func TestExtract_NumberRejectsDatesAndShortTokens(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM: DUPONT", 10, 0.9),
		frag("12.05.1990", 40, 0.9), // date-like
		frag("AB12", 70, 0.9),       // too short
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Number != "" {
		t.Errorf("expected no document number, got %q", fields.Number)
	}
}

func TestExtract_NoDigitsOrNoiseInNames(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("REPUBLIQUE FRANCAISE", 10, 0.99),
		frag("CARTE NATIONALE", 30, 0.99),
		frag("NOM: DUP0NT4", 50, 0.9), // digits, must be rejected
		frag("SEXE M", 70, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if strings.ContainsAny(fields.Surname, "0123456789") {
		t.Errorf("surname contains digits: %q", fields.Surname)
	}
	for _, kw := range []string{"REPUBLIQUE", "CARTE", "SEXE"} {
		if strings.Contains(fields.Surname, kw) || strings.Contains(strings.ToUpper(fields.GivenName), kw) {
			t.Errorf("noise keyword leaked into names: %+v", fields)
		}
	}
}

func TestExtract_SurnameRequiresUppercase(t *testing.T) {
	fragments := []recognizer.Fragment{
		// Mixed-case running text must not be taken as a surname.
		frag("NOM: delivered by the issuing office", 10, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Surname != "" {
		t.Errorf("mixed-case text accepted as surname: %q", fields.Surname)
	}
}

func TestExtract_GivenNameTitleCased(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("NOM: DUPONT", 10, 0.9),
		frag("PRENOM JEAN-PIERRE", 40, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.GivenName != "Jean-Pierre" {
		t.Errorf("expected Jean-Pierre, got %q", fields.GivenName)
	}
}

func TestExtract_Empty(t *testing.T) {
	fields := NewExtractor().Extract(nil)
	if fields.Surname != "" || fields.GivenName != "" || fields.Number != "" {
		t.Errorf("expected empty result, got %+v", fields)
	}
}

func TestExtract_CrossFieldProximity(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("PRENOM Claire", 10, 0.9),
		frag("MARTIN", 40, 0.9), // unlabeled surname right after the given name
	}

	fields := NewExtractor().Extract(fragments)
	if fields.GivenName != "Claire" {
		t.Errorf("expected given name Claire, got %q", fields.GivenName)
	}
	if fields.Surname != "MARTIN" {
		t.Errorf("expected surname MARTIN, got %q", fields.Surname)
	}
}

func TestExtract_NumberNotConsumedByNames(t *testing.T) {
	fragments := []recognizer.Fragment{
		frag("DUPONT, Jean", 10, 0.9),
		frag("X99Y88Z7", 40, 0.9),
	}

	fields := NewExtractor().Extract(fragments)
	if fields.Number != "X99Y88Z7" {
		t.Errorf("expected number X99Y88Z7, got %q", fields.Number)
	}
}
