package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	// legistarTimeLayout is how the council API formats timestamps; they carry no zone
	legistarTimeLayout = "2006-01-02T15:04:05"
	councilBodyName    = "City Council"
)

// CouncilClient handles communication with the city council (Legistar) API
type CouncilClient struct {
	client  *http.Client
	baseURL string
	token   string
	now     func() time.Time
}

// NewCouncilClient creates a new council API client
func NewCouncilClient(baseURL, token string) *CouncilClient {
	return &CouncilClient{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		now:     time.Now,
	}
}

// officeRecordJSON represents an entry of /officerecords
type officeRecordJSON struct {
	OfficeRecordPersonID  int    `json:"OfficeRecordPersonId"`
	OfficeRecordFullName  string `json:"OfficeRecordFullName"`
	OfficeRecordStartDate string `json:"OfficeRecordStartDate"`
	OfficeRecordEndDate   string `json:"OfficeRecordEndDate"`
}

// personJSON represents the response of /persons/{id}
type personJSON struct {
	PersonID     int    `json:"PersonId"`
	PersonEmail  string `json:"PersonEmail"`
	PersonWWW    string `json:"PersonWWW"`
	PersonPhone  string `json:"PersonPhone"`
	PersonPhone2 string `json:"PersonPhone2"`
}

// matterJSON represents a bill ("matter") in the API
type matterJSON struct {
	MatterID         int    `json:"MatterId"`
	MatterFile       string `json:"MatterFile"`
	MatterName       string `json:"MatterName"`
	MatterTitle      string `json:"MatterTitle"`
	MatterStatusName string `json:"MatterStatusName"`
	MatterBodyName   string `json:"MatterBodyName"`
	MatterIntroDate  string `json:"MatterIntroDate"`
	MatterVersion    string `json:"MatterVersion"`
}

// matterSponsorJSON represents an entry of /matters/{id}/sponsors
type matterSponsorJSON struct {
	MatterSponsorNameID        int    `json:"MatterSponsorNameId"`
	MatterSponsorSequence      int    `json:"MatterSponsorSequence"`
	MatterSponsorMatterVersion string `json:"MatterSponsorMatterVersion"`
}

// FetchCurrentMembers retrieves the office records of everyone currently seated on the council
func (c *CouncilClient) FetchCurrentMembers(ctx context.Context) ([]model.CouncilMemberRecord, error) {
	today := c.now().UTC().Format("2006-01-02")
	filter := fmt.Sprintf(
		"OfficeRecordBodyName eq '%s' and OfficeRecordStartDate le datetime'%s' and OfficeRecordEndDate ge datetime'%s'",
		councilBodyName, today, today)

	var resp []officeRecordJSON
	if err := c.get(ctx, "/officerecords", url.Values{"$filter": {filter}}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch council members: %w", err)
	}

	members := make([]model.CouncilMemberRecord, 0, len(resp))
	for _, r := range resp {
		rec := model.CouncilMemberRecord{
			CouncilPersonID: r.OfficeRecordPersonID,
			FullName:        strings.TrimSpace(r.OfficeRecordFullName),
		}
		rec.TermStart.Time, rec.TermStart.Valid = parseLegistarTime(r.OfficeRecordStartDate)
		rec.TermEnd.Time, rec.TermEnd.Valid = parseLegistarTime(r.OfficeRecordEndDate)
		members = append(members, rec)
	}

	return members, nil
}

// FetchPerson retrieves contact details for one council person
func (c *CouncilClient) FetchPerson(ctx context.Context, councilPersonID int) (*model.CouncilPersonDetail, error) {
	var resp personJSON
	if err := c.get(ctx, fmt.Sprintf("/persons/%d", councilPersonID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch person %d: %w", councilPersonID, err)
	}

	return &model.CouncilPersonDetail{
		CouncilPersonID: councilPersonID,
		Email:           strings.TrimSpace(resp.PersonEmail),
		Website:         strings.TrimSpace(resp.PersonWWW),
		CentralPhone:    strings.TrimSpace(resp.PersonPhone),
		DistrictPhone:   strings.TrimSpace(resp.PersonPhone2),
	}, nil
}

// FetchBill retrieves a single matter by its API id
func (c *CouncilClient) FetchBill(ctx context.Context, cityBillID int) (*model.UpstreamCityBill, error) {
	var resp matterJSON
	if err := c.get(ctx, fmt.Sprintf("/matters/%d", cityBillID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch bill %d: %w", cityBillID, err)
	}
	bill := convertMatter(resp)
	return &bill, nil
}

// SearchBills finds introductions whose file number contains file, e.g. "0001-2024"
func (c *CouncilClient) SearchBills(ctx context.Context, file string) ([]model.UpstreamCityBill, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, apperr.Validation("file is required")
	}

	filter := fmt.Sprintf("substringof('%s', MatterFile) eq true and MatterTypeName eq 'Introduction'",
		strings.ReplaceAll(file, "'", "''"))

	var resp []matterJSON
	if err := c.get(ctx, "/matters", url.Values{"$filter": {filter}}, &resp); err != nil {
		return nil, fmt.Errorf("failed to search bills for %q: %w", file, err)
	}

	bills := make([]model.UpstreamCityBill, len(resp))
	for i, m := range resp {
		bills[i] = convertMatter(m)
	}
	return bills, nil
}

// FetchBillSponsors retrieves the sponsors of one version of a matter. An
// empty version returns sponsors of every version.
func (c *CouncilClient) FetchBillSponsors(ctx context.Context, cityBillID int, version string) ([]model.FetchedSponsor, error) {
	var resp []matterSponsorJSON
	if err := c.get(ctx, fmt.Sprintf("/matters/%d/sponsors", cityBillID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch sponsors for bill %d: %w", cityBillID, err)
	}

	sponsors := make([]model.FetchedSponsor, 0, len(resp))
	for _, s := range resp {
		if version != "" && s.MatterSponsorMatterVersion != version {
			continue
		}
		sponsors = append(sponsors, model.FetchedSponsor{
			CouncilPersonID: s.MatterSponsorNameID,
			Sequence:        s.MatterSponsorSequence,
		})
	}
	return sponsors, nil
}

// convertMatter maps an API matter onto the local bill shape
func convertMatter(m matterJSON) model.UpstreamCityBill {
	intro, _ := parseLegistarTime(m.MatterIntroDate)
	return model.UpstreamCityBill{
		Name:        m.MatterName,
		Description: m.MatterTitle,
		City: model.CityBill{
			CityBillID:    m.MatterID,
			File:          m.MatterFile,
			Title:         m.MatterName,
			Status:        m.MatterStatusName,
			CouncilBody:   m.MatterBodyName,
			IntroDate:     intro,
			ActiveVersion: m.MatterVersion,
		},
	}
}

func parseLegistarTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(legistarTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// get performs one GET against the API and decodes the JSON body into out.
// Upstream failures are reported as transient errors.
func (c *CouncilClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	return getJSON(ctx, c.client, endpoint, out)
}

// getJSON is shared by the upstream API clients
func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return apperr.Transient(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transient(err, "failed to read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFound("upstream resource not found")
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.Transient(nil, "unexpected status code: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Transient(err, "failed to parse response")
	}
	return nil
}
