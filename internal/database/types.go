package database

import (
	"time"
)

// Result values persisted on verification rows. The legacy register uses the
// French vocabulary, kept here so historical rows stay queryable.
const (
	DataResultOK       = "OK"
	DataResultFailed   = "ECHEC"
	DataResultExternal = "EXTERNE"

	FaceResultOK          = "OK"
	FaceResultUnknown     = "INCONNU"
	FaceResultNotVerified = "NON_VERIFIE"
)

// Document is a reference identity document from the register.
// Column names stay French to match the legacy schema.
type Document struct {
	ID               int64
	Number           string // numero_document
	Surname          string // nom
	GivenName        string // prenom
	Nationality      string // nationalite
	BirthDate        *time.Time
	Sex              string
	BirthPlace       string
	IssueDate        *time.Time
	ExpiryDate       *time.Time
	ImagePath        string
	Profession       string
	Domicile         string
	IssuingAuthority string // organisme_delivrance
	NFCInfo          string
	TypeID           *int64
	CreatedAt        time.Time
}

// DocumentType is a document category (CNI, passport, residence permit, ...).
type DocumentType struct {
	ID          int64
	Label       string
	Description string
}

// Place is a control point where verifications happen.
type Place struct {
	ID        int64
	Name      string
	Longitude float64
	Latitude  float64
	SiteID    int64
}

// EnrolledFace is one enrolled identity embedding.
type EnrolledFace struct {
	Label     string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
}

// OCRRecord stores the raw recognition output of one document scan.
type OCRRecord struct {
	ID            int64
	ImageName     string
	Text          string
	Confidence    float64 // max fragment confidence
	FragmentsJSON string  // recognized fragments, serialized
	DocumentID    *int64  // best match, if any
	ExternalSurname   string
	ExternalGivenName string
	ExternalNumber    string
	CreatedAt     time.Time
}

// Verification is one persisted verification outcome.
type Verification struct {
	ID              int64
	VerifiedAt      time.Time
	FaceResult      string // resultat_photo
	DataResult      string // resultat_donnee
	FailureImageURL string
	DocumentID      *int64
	OCRRecordID     *int64
	PlaceID         *int64
}

// VerificationStats aggregates outcomes over a period.
type VerificationStats struct {
	Total    int    `json:"total"`
	Matched  int    `json:"matched"`
	Failed   int    `json:"failed"`
	External int    `json:"external"`
	Period   string `json:"period"`
}

// PlaceStats counts verifications for one place.
type PlaceStats struct {
	Place string `json:"place"`
	Total int    `json:"total"`
}

// StatsFilter restricts statistics queries to a time window. Period takes one
// of today/yesterday/week/month; Start/End define a custom range instead.
type StatsFilter struct {
	Period string
	Start  time.Time
	End    time.Time
}

// Window resolves the filter into a concrete [from, to) interval.
// A zero filter returns ok=false meaning "all time".
func (f StatsFilter) Window(now time.Time) (from, to time.Time, ok bool) {
	if !f.Start.IsZero() || !f.End.IsZero() {
		from = f.Start
		to = f.End
		if to.IsZero() {
			to = now
		} else {
			// Include the whole end day.
			to = to.AddDate(0, 0, 1)
		}
		return from, to, true
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f.Period {
	case "today":
		return midnight, now, true
	case "yesterday":
		return midnight.AddDate(0, 0, -1), midnight, true
	case "week":
		return now.AddDate(0, 0, -7), now, true
	case "month":
		return now.AddDate(0, 0, -30), now, true
	}
	return time.Time{}, time.Time{}, false
}
