package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
)

// StateClient handles communication with the state legislature (OpenLegislation) API
type StateClient struct {
	client  *http.Client
	baseURL string
	key     string
}

// NewStateClient creates a new state API client
func NewStateClient(baseURL, key string) *StateClient {
	return &StateClient{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
	}
}

// stateBillJSON represents a bill in the API
type stateBillJSON struct {
	BasePrintNo   string `json:"basePrintNo"`
	Session       int    `json:"session"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	ActiveVersion string `json:"activeVersion"`
	BillType      struct {
		Chamber string `json:"chamber"`
	} `json:"billType"`
	Status struct {
		StatusDesc string `json:"statusDesc"`
	} `json:"status"`
}

// billResponse represents the API response for /bills/{session}/{printNo}
type billResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Result  stateBillJSON `json:"result"`
}

// searchResponse represents the API response for /bills/{session}/search
type searchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  struct {
		Items []struct {
			Result stateBillJSON `json:"result"`
		} `json:"items"`
	} `json:"result"`
}

// SearchBills finds bills in a session whose print number starts with codeName, e.g. "S1234"
func (c *StateClient) SearchBills(ctx context.Context, codeName string, sessionYear int) ([]model.UpstreamStateBill, error) {
	codeName = strings.ToUpper(strings.TrimSpace(codeName))
	if codeName == "" {
		return nil, apperr.Validation("codeName is required")
	}
	if sessionYear <= 0 {
		return nil, apperr.Validation("sessionYear is required")
	}

	params := url.Values{"term": {fmt.Sprintf("basePrintNo:%s*", codeName)}}
	var resp searchResponse
	if err := c.get(ctx, fmt.Sprintf("/bills/%d/search", sessionYear), params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search state bills for %q: %w", codeName, err)
	}
	if !resp.Success {
		return nil, apperr.Transient(nil, "state bill search failed: %s", resp.Message)
	}

	bills := make([]model.UpstreamStateBill, len(resp.Result.Items))
	for i, item := range resp.Result.Items {
		bills[i] = convertStateBill(item.Result)
	}
	return bills, nil
}

// GetBill retrieves one bill by session year and base print number
func (c *StateClient) GetBill(ctx context.Context, basePrintNo string, sessionYear int) (*model.UpstreamStateBill, error) {
	basePrintNo = strings.ToUpper(strings.TrimSpace(basePrintNo))
	var resp billResponse
	if err := c.get(ctx, fmt.Sprintf("/bills/%d/%s", sessionYear, url.PathEscape(basePrintNo)), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch state bill %s-%d: %w", basePrintNo, sessionYear, err)
	}
	if !resp.Success {
		return nil, apperr.NotFound("state bill %s-%d not found", basePrintNo, sessionYear)
	}

	bill := convertStateBill(resp.Result)
	return &bill, nil
}

func convertStateBill(b stateBillJSON) model.UpstreamStateBill {
	return model.UpstreamStateBill{
		Name:        b.Title,
		Description: b.Summary,
		State: model.StateBill{
			SessionYear:   b.Session,
			BasePrintNo:   b.BasePrintNo,
			Chamber:       model.StateChamber(strings.ToUpper(b.BillType.Chamber)),
			ActiveVersion: b.ActiveVersion,
			Status:        b.Status.StatusDesc,
			Summary:       b.Summary,
		},
	}
}

func (c *StateClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.key != "" {
		params.Set("key", c.key)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()
	return getJSON(ctx, c.client, endpoint, out)
}
