package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// BillType distinguishes city council bills from state legislature bills
type BillType string

const (
	BillTypeCity  BillType = "CITY"
	BillTypeState BillType = "STATE"
)

// StateChamber is one house of the state legislature
type StateChamber string

const (
	ChamberSenate   StateChamber = "SENATE"
	ChamberAssembly StateChamber = "ASSEMBLY"
)

// Bill is a tracked piece of legislation. Exactly one of City or State is set,
// matching Type.
type Bill struct {
	ID                 uuid.UUID  `json:"id"`
	Type               BillType   `json:"type"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Notes              string     `json:"notes"`
	Nickname           string     `json:"nickname"`
	TwitterSearchTerms []string   `json:"twitterSearchTerms"`
	City               *CityBill  `json:"cityBill"`
	State              *StateBill `json:"stateBill"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// CodeName returns the short identifier people use for the bill
func (b *Bill) CodeName() string {
	switch {
	case b.City != nil:
		return b.City.File
	case b.State != nil:
		return b.State.BasePrintNo
	default:
		return ""
	}
}

// CityBill holds the council-specific fields of a city bill
type CityBill struct {
	CityBillID    int       `json:"cityBillId"`
	File          string    `json:"file"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	CouncilBody   string    `json:"councilBody"`
	IntroDate     time.Time `json:"introDate"`
	ActiveVersion string    `json:"activeVersion"`
}

// StateBill holds the state-specific fields of a state bill
type StateBill struct {
	SessionYear   int          `json:"sessionYear"`
	BasePrintNo   string       `json:"basePrintNo"`
	Chamber       StateChamber `json:"chamber"`
	ActiveVersion string       `json:"activeVersion"`
	Status        string       `json:"status"`
	Summary       string       `json:"summary"`
}

// UpstreamCityBill is a matter as reported by the council API
type UpstreamCityBill struct {
	Name        string
	Description string
	City        CityBill
}

// UpstreamStateBill is a bill as reported by the state legislature API
type UpstreamStateBill struct {
	Name        string
	Description string
	State       StateBill
}

// BillSearchResult is an upstream bill annotated with whether we already track it
type BillSearchResult struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        BillType   `json:"type"`
	City        *CityBill  `json:"cityBill,omitempty"`
	State       *StateBill `json:"stateBill,omitempty"`
	Tracked     bool       `json:"tracked"`
}

// Attachment is a link saved against a bill
type Attachment struct {
	ID     uuid.UUID `json:"id"`
	BillID uuid.UUID `json:"billId"`
	Name   string    `json:"name"`
	URL    string    `json:"url"`
}

// Sponsorship records that a legislator backs a bill. SponsorSequence 0 is the lead sponsor.
type Sponsorship struct {
	BillID          uuid.UUID    `json:"billId"`
	LegislatorID    uuid.UUID    `json:"personId"`
	CouncilPersonID int          `json:"-"`
	SponsorSequence int          `json:"sponsorSequence"`
	AddedAt         sql.NullTime `json:"-"`
	Legislator      *Legislator  `json:"person,omitempty"`
}

// IsLead reports whether this is the lead sponsorship
func (s *Sponsorship) IsLead() bool {
	return s.SponsorSequence == 0
}

// FetchedSponsor is one sponsor entry reported by the council API
type FetchedSponsor struct {
	CouncilPersonID int
	Sequence        int
}

// PowerHour is a generated phone bank spreadsheet for a bill
type PowerHour struct {
	ID             uuid.UUID `json:"id"`
	BillID         uuid.UUID `json:"billId"`
	Title          string    `json:"title"`
	SpreadsheetID  string    `json:"-"`
	SpreadsheetURL string    `json:"spreadsheetUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SpreadsheetRef identifies a document created by the document service
type SpreadsheetRef struct {
	ID  string
	URL string
}
