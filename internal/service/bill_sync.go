package service

import (
	"github.com/jjenkins/billtracker/internal/model"
)

// cityBillField copies one upstream-owned field onto a tracked bill and
// reports whether the value changed
type cityBillField struct {
	name  string
	apply func(dst *model.Bill, src *model.UpstreamCityBill) bool
}

func setString(dst *string, v string) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

// cityBillFields lists every field the council API owns. Local fields (notes,
// nickname, search terms) are absent and never overwritten.
var cityBillFields = []cityBillField{
	{"name", func(d *model.Bill, s *model.UpstreamCityBill) bool { return setString(&d.Name, s.Name) }},
	{"description", func(d *model.Bill, s *model.UpstreamCityBill) bool { return setString(&d.Description, s.Description) }},
	{"file", func(d *model.Bill, s *model.UpstreamCityBill) bool { return setString(&d.City.File, s.City.File) }},
	{"title", func(d *model.Bill, s *model.UpstreamCityBill) bool { return setString(&d.City.Title, s.City.Title) }},
	{"status", func(d *model.Bill, s *model.UpstreamCityBill) bool { return setString(&d.City.Status, s.City.Status) }},
	{"council_body", func(d *model.Bill, s *model.UpstreamCityBill) bool {
		return setString(&d.City.CouncilBody, s.City.CouncilBody)
	}},
	{"intro_date", func(d *model.Bill, s *model.UpstreamCityBill) bool {
		if d.City.IntroDate.Equal(s.City.IntroDate) {
			return false
		}
		d.City.IntroDate = s.City.IntroDate
		return true
	}},
	{"active_version", func(d *model.Bill, s *model.UpstreamCityBill) bool {
		return setString(&d.City.ActiveVersion, s.City.ActiveVersion)
	}},
}

// ApplyUpstreamCityBill copies upstream fields onto bill and returns the
// names of the fields that changed
func ApplyUpstreamCityBill(bill *model.Bill, upstream *model.UpstreamCityBill) []string {
	if bill.City == nil {
		bill.City = &model.CityBill{CityBillID: upstream.City.CityBillID}
	}

	var changed []string
	for _, f := range cityBillFields {
		if f.apply(bill, upstream) {
			changed = append(changed, f.name)
		}
	}
	return changed
}

// NewCityBill builds an untracked bill from an upstream matter
func NewCityBill(upstream *model.UpstreamCityBill) *model.Bill {
	bill := &model.Bill{Type: model.BillTypeCity}
	city := upstream.City
	bill.City = &city
	bill.Name = upstream.Name
	bill.Description = upstream.Description
	return bill
}

// NewStateBill builds an untracked bill from an upstream state bill
func NewStateBill(upstream *model.UpstreamStateBill) *model.Bill {
	state := upstream.State
	return &model.Bill{
		Type:        model.BillTypeState,
		Name:        upstream.Name,
		Description: upstream.Description,
		State:       &state,
	}
}
