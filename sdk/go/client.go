package bidlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Bidline HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// SKU represents a catalog entry (partial).
type SKU struct {
	SKU             string   `json:"sku"`
	Description     string   `json:"description,omitempty"`
	Material        string   `json:"material"`
	Insulation      string   `json:"insulation"`
	Cores           int      `json:"cores"`
	SizeMM2         float64  `json:"size_mm2"`
	VoltageKV       float64  `json:"voltage_kv"`
	Certifications  []string `json:"certifications,omitempty"`
	BasePrice       float64  `json:"base_price"`
	MetalWeightKgKm float64  `json:"metal_weight_kg_km"`
}

// LineItem is one RFP product line.
type LineItem struct {
	Line       int     `json:"line"`
	Quantity   int     `json:"quantity"`
	Material   string  `json:"material"`
	Insulation string  `json:"insulation"`
	Cores      int     `json:"cores"`
	SizeMM2    float64 `json:"size_mm2"`
	VoltageKV  float64 `json:"voltage_kv"`
}

// RFP represents an intake record.
type RFP struct {
	ID                     string     `json:"id"`
	Title                  string     `json:"title"`
	Client                 string     `json:"client"`
	DueDate                string     `json:"due_date"`
	Lines                  []LineItem `json:"lines"`
	TestRequirements       []string   `json:"test_requirements,omitempty"`
	BidBondRequired        bool       `json:"bid_bond_required"`
	BidBondValue           float64    `json:"bid_bond_value"`
	LiquidatedDamages      bool       `json:"liquidated_damages"`
	PerformanceBondPercent float64    `json:"performance_bond_percent"`
}

// Run represents a workflow run outcome (partial; Bid carries the full
// consolidated package as returned by the API).
type Run struct {
	ID                  string         `json:"id"`
	RFPID               string         `json:"rfp_id"`
	Status              string         `json:"status"`
	Decision            string         `json:"decision,omitempty"`
	RiskScore           int            `json:"risk_score"`
	RetryCount          int            `json:"retry_count"`
	TotalBidValue       float64        `json:"total_bid_value"`
	TechnicalCompliance float64        `json:"technical_compliance"`
	Errors              []string       `json:"errors,omitempty"`
	Bid                 map[string]any `json:"bid,omitempty"`
	StartedAt           string         `json:"started_at"`
	CompletedAt         string         `json:"completed_at,omitempty"`
}

// Event represents an audit log entry.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	RunID   string `json:"run_id,omitempty"`
	RFPID   string `json:"rfp_id,omitempty"`
	Stage   string `json:"stage"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListCatalog returns all catalog SKUs.
func (c *Client) ListCatalog(ctx context.Context) ([]SKU, error) {
	var resp []SKU
	err := c.do(ctx, http.MethodGet, "v0/catalog", nil, &resp)
	return resp, err
}

// GetSKU fetches one catalog entry.
func (c *Client) GetSKU(ctx context.Context, sku string) (SKU, error) {
	var resp SKU
	err := c.do(ctx, http.MethodGet, "v0/catalog/"+url.PathEscape(sku), nil, &resp)
	return resp, err
}

// CreateRFP submits a new RFP.
func (c *Client) CreateRFP(ctx context.Context, rfp RFP) (RFP, error) {
	var resp RFP
	err := c.do(ctx, http.MethodPost, "v0/rfps", rfp, &resp)
	return resp, err
}

// ListRFPs returns stored RFPs.
func (c *Client) ListRFPs(ctx context.Context) ([]RFP, error) {
	var resp []RFP
	err := c.do(ctx, http.MethodGet, "v0/rfps", nil, &resp)
	return resp, err
}

// GetRFP fetches one RFP.
func (c *Client) GetRFP(ctx context.Context, id string) (RFP, error) {
	var resp RFP
	err := c.do(ctx, http.MethodGet, "v0/rfps/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ProcessRFP runs the bid workflow for one RFP and returns the terminal run.
func (c *Client) ProcessRFP(ctx context.Context, id string) (Run, error) {
	var resp Run
	err := c.do(ctx, http.MethodPost, "v0/rfps/"+url.PathEscape(id)+"/process", nil, &resp)
	return resp, err
}

// ListRuns returns runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	var resp []Run
	err := c.do(ctx, http.MethodGet, "v0/runs", nil, &resp)
	return resp, err
}

// GetRun fetches one run with its consolidated bid.
func (c *Client) GetRun(ctx context.Context, id string) (Run, error) {
	var resp Run
	err := c.do(ctx, http.MethodGet, "v0/runs/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// RunEvents returns the audit trail for a run in order.
func (c *Client) RunEvents(ctx context.Context, id string) ([]Event, error) {
	var resp []Event
	err := c.do(ctx, http.MethodGet, "v0/runs/"+url.PathEscape(id)+"/events", nil, &resp)
	return resp, err
}

// Rates returns the current commodity rate table.
func (c *Client) Rates(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := c.do(ctx, http.MethodGet, "v0/rates", nil, &resp)
	return resp.Rates, err
}

// UpdateRate sets one commodity rate (USD per metric ton).
func (c *Client) UpdateRate(ctx context.Context, material string, rateUSDMT float64) (map[string]float64, error) {
	body := map[string]any{
		"material":    material,
		"rate_usd_mt": rateUSDMT,
	}
	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := c.do(ctx, http.MethodPut, "v0/rates", body, &resp)
	return resp.Rates, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
