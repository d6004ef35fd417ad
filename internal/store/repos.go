package store

// Repos bundles every store bound to the same Querier, usually one unit of work
type Repos struct {
	Bills        *BillStore
	Legislators  *LegislatorStore
	Sponsorships *SponsorshipStore
	PowerHours   *PowerHourStore
}

// NewRepos binds all stores to q
func NewRepos(q Querier) *Repos {
	return &Repos{
		Bills:        NewBillStore(q),
		Legislators:  NewLegislatorStore(q),
		Sponsorships: NewSponsorshipStore(q),
		PowerHours:   NewPowerHourStore(q),
	}
}
