package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"procredit/accrual"
)

// HTTPClient implements Client against the platform's admin REST surface.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient constructs a platform client with sane defaults.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// proPayload is the wire representation of a pro record. Monetary counters
// travel as decimal strings in the shop currency.
type proPayload struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	CustomerID        string `json:"customer_id"`
	Status            bool   `json:"status"`
	CacheRevenue      string `json:"cache_revenue"`
	CacheOrdersCount  int64  `json:"cache_orders_count"`
	CacheCreditEarned string `json:"cache_credit_earned"`
}

type proListResponse struct {
	Pros       []proPayload `json:"pros"`
	NextCursor string       `json:"next_cursor"`
}

func (p proPayload) toPro() (Pro, error) {
	revenue, err := parseOptionalAmount(p.CacheRevenue)
	if err != nil {
		return Pro{}, fmt.Errorf("pro %s cache_revenue: %w", p.ID, err)
	}
	credit, err := parseOptionalAmount(p.CacheCreditEarned)
	if err != nil {
		return Pro{}, fmt.Errorf("pro %s cache_credit_earned: %w", p.ID, err)
	}
	return Pro{
		ID:                p.ID,
		Code:              p.Code,
		CustomerID:        p.CustomerID,
		Active:            p.Status,
		CacheRevenue:      revenue,
		CacheOrdersCount:  p.CacheOrdersCount,
		CacheCreditEarned: credit,
	}, nil
}

func parseOptionalAmount(value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "" {
		return big.NewInt(0), nil
	}
	return accrual.ParseDecimal(value)
}

// GetPro fetches one pro by object id.
func (c *HTTPClient) GetPro(ctx context.Context, id string) (*Pro, error) {
	var payload proPayload
	if err := c.do(ctx, http.MethodGet, "/pros/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	pro, err := payload.toPro()
	if err != nil {
		return nil, err
	}
	return &pro, nil
}

// SearchPros queries the indexed code search.
func (c *HTTPClient) SearchPros(ctx context.Context, query string) ([]Pro, error) {
	path := "/pros/search?q=" + url.QueryEscape(query)
	var resp proListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return convertPros(resp.Pros)
}

// ListPros fetches one enumeration page.
func (c *HTTPClient) ListPros(ctx context.Context, cursor string, limit int) ([]Pro, string, error) {
	if limit <= 0 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		values.Set("cursor", cursor)
	}
	var resp proListResponse
	if err := c.do(ctx, http.MethodGet, "/pros?"+values.Encode(), nil, &resp); err != nil {
		return nil, "", err
	}
	pros, err := convertPros(resp.Pros)
	if err != nil {
		return nil, "", err
	}
	return pros, resp.NextCursor, nil
}

// UpdateProCache issues a partial update covering only the cumulative counters.
func (c *HTTPClient) UpdateProCache(ctx context.Context, id string, revenue *big.Int, ordersCount int64, creditEarned *big.Int) error {
	payload := map[string]interface{}{
		"cache_revenue":       accrual.FormatMinor(revenue),
		"cache_orders_count":  ordersCount,
		"cache_credit_earned": accrual.FormatMinor(creditEarned),
	}
	return c.do(ctx, http.MethodPatch, "/pros/"+url.PathEscape(id), payload, nil)
}

// DiscountCode resolves a discount-application id to its original code text.
func (c *HTTPClient) DiscountCode(ctx context.Context, applicationID string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodGet, "/discount_applications/"+url.PathEscape(applicationID), nil, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

func convertPros(payloads []proPayload) ([]Pro, error) {
	pros := make([]Pro, 0, len(payloads))
	for _, p := range payloads {
		pro, err := p.toPro()
		if err != nil {
			return nil, err
		}
		pros = append(pros, pro)
	}
	return pros, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if c == nil {
		return fmt.Errorf("directory client not configured")
	}
	var body *bytes.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform-Access-Token", c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("directory %s %s failed: status=%d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
