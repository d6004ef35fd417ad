package model

import (
	"database/sql"

	"github.com/google/uuid"
)

// PersonType distinguishes the roles a person row can play
type PersonType string

const (
	PersonTypeCouncilMember PersonType = "COUNCIL_MEMBER"
	PersonTypeStaffer       PersonType = "STAFFER"
)

// OfficeContactType distinguishes central (legislative) offices from district offices
type OfficeContactType string

const (
	OfficeContactCentral  OfficeContactType = "CENTRAL_OFFICE"
	OfficeContactDistrict OfficeContactType = "DISTRICT_OFFICE"
	OfficeContactOther    OfficeContactType = "OTHER"
)

// OfficeContact is one phone/fax entry for a person
type OfficeContact struct {
	Type  OfficeContactType `json:"type"`
	Phone string            `json:"phone"`
	Fax   string            `json:"fax"`
	City  string            `json:"city"`
}

// Legislator is a council member with contact and biographical data.
// CouncilPersonID is the external id from the council API and never changes.
type Legislator struct {
	ID              uuid.UUID       `json:"id"`
	CouncilPersonID int             `json:"cityCouncilPersonId"`
	Name            string          `json:"name"`
	Title           string          `json:"title"`
	Email           string          `json:"email"`
	Party           string          `json:"party"`
	Borough         string          `json:"borough"`
	Twitter         string          `json:"twitter"`
	Website         string          `json:"website"`
	Notes           string          `json:"notes"`
	TermStart       sql.NullTime    `json:"-"`
	TermEnd         sql.NullTime    `json:"-"`
	Contacts        []OfficeContact `json:"officeContacts"`
	Staffers        []Staffer       `json:"staffers"`
}

// Phones returns the non-empty phone numbers of the given contact type, in order
func (l *Legislator) Phones(t OfficeContactType) []string {
	return phonesOfType(l.Contacts, t)
}

// DisplayTwitter returns the handle prefixed with @, or "" when there is none
func (l *Legislator) DisplayTwitter() string {
	return displayHandle(l.Twitter)
}

// Staffer works for a legislator
type Staffer struct {
	ID       uuid.UUID       `json:"id"`
	BossID   uuid.UUID       `json:"-"`
	Name     string          `json:"name"`
	Title    string          `json:"title"`
	Email    string          `json:"email"`
	Twitter  string          `json:"twitter"`
	Contacts []OfficeContact `json:"officeContacts"`
}

// DisplayTwitter returns the handle prefixed with @, or "" when there is none
func (s *Staffer) DisplayTwitter() string {
	return displayHandle(s.Twitter)
}

// CouncilMemberRecord is a current office record from the council API
type CouncilMemberRecord struct {
	CouncilPersonID int
	FullName        string
	TermStart       sql.NullTime
	TermEnd         sql.NullTime
}

// CouncilPersonDetail is the person detail payload from the council API
type CouncilPersonDetail struct {
	CouncilPersonID int
	Email           string
	Website         string
	CentralPhone    string
	DistrictPhone   string
}

// StaticLegislator is a cleaned entry from the static reference dataset
type StaticLegislator struct {
	Name    string `yaml:"name"`
	Party   string `yaml:"party"`
	Borough string `yaml:"borough"`
	Twitter string `yaml:"twitter"`
}

func phonesOfType(contacts []OfficeContact, t OfficeContactType) []string {
	var phones []string
	for _, c := range contacts {
		if c.Type == t && c.Phone != "" {
			phones = append(phones, c.Phone)
		}
	}
	return phones
}

func displayHandle(handle string) string {
	if handle == "" {
		return ""
	}
	return "@" + handle
}
