package domain

// LineItem is one raw product line as received in an RFP document.
type LineItem struct {
	Line       int     `json:"line"`
	Quantity   int     `json:"quantity"`
	Material   string  `json:"material"`
	Insulation string  `json:"insulation"`
	Cores      int     `json:"cores"`
	SizeMM2    float64 `json:"size_mm2"`
	VoltageKV  float64 `json:"voltage_kv"`
}

// RFPRequest is the immutable intake record for one request-for-proposal.
type RFPRequest struct {
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
	CreatedAt              string     `json:"created_at,omitempty" format:"date-time"`
}

// QualifiedRFP is the screening output. Created once by the qualifier,
// never mutated afterward.
type QualifiedRFP struct {
	ID                     string   `json:"id"`
	Title                  string   `json:"title"`
	Client                 string   `json:"client"`
	DueDate                string   `json:"due_date"`
	DaysToDeadline         int      `json:"days_to_deadline"`
	RiskScore              int      `json:"risk_score"`
	RiskLevel              string   `json:"risk_level" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Priority               string   `json:"priority" enum:"HIGH,MEDIUM,LOW"`
	RiskFactors            []string `json:"risk_factors,omitempty"`
	TestRequirements       []string `json:"test_requirements,omitempty"`
	BidBondRequired        bool     `json:"bid_bond_required"`
	BidBondValue           float64  `json:"bid_bond_value"`
	LiquidatedDamages      bool     `json:"liquidated_damages"`
	PerformanceBondPercent float64  `json:"performance_bond_percent"`
}

// ProductSpecification is one validated requirement line. Its identity never
// changes across matching attempts; only the tolerance applied to it does.
type ProductSpecification struct {
	Line       int     `json:"line"`
	Quantity   int     `json:"quantity"`
	Material   string  `json:"material"`
	Insulation string  `json:"insulation"`
	Cores      int     `json:"cores"`
	SizeMM2    float64 `json:"size_mm2"`
	VoltageKV  float64 `json:"voltage_kv"`
}

// CandidateSKU is a catalog entry, read-only from the workflow's view.
// Material doubles as the commodity type for rate lookups.
type CandidateSKU struct {
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
	CreatedAt       string   `json:"created_at,omitempty" format:"date-time"`
}

// FieldScore is the per-field component of a spec match score.
type FieldScore struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
}

// SelectedSKU records the catalog candidate chosen for one specification line.
type SelectedSKU struct {
	Line      int                   `json:"line"`
	SKU       string                `json:"sku"`
	Score     float64               `json:"score"`
	Status    string                `json:"status" enum:"perfect,qualified,marginal,custom required"`
	Breakdown map[string]FieldScore `json:"breakdown"`
	Attempt   int                   `json:"attempt"`
}

// PricingLine is the cost record for one specification line.
// GrandTotal = MaterialCost + ServicesCost + RiskPremium; services and the
// bid-level risk premium are attributed to the first line only.
type PricingLine struct {
	Line         int     `json:"line"`
	SKU          string  `json:"sku"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	MaterialCost float64 `json:"material_cost"`
	ServicesCost float64 `json:"services_cost"`
	RiskPremium  float64 `json:"risk_premium"`
	GrandTotal   float64 `json:"grand_total"`
}

// OperationalSavings compares the manual bidding baseline to an automated run.
type OperationalSavings struct {
	ManualCostUSD    float64 `json:"manual_cost_usd"`
	AutomatedCostUSD float64 `json:"automated_cost_usd"`
	SavingsUSD       float64 `json:"savings_usd"`
	SavingsPercent   float64 `json:"savings_percent"`
}

// SensitivityRow is one entry of the commodity-shift table.
type SensitivityRow struct {
	ShiftPercent          float64 `json:"shift_percent"`
	CostDelta             float64 `json:"cost_delta"`
	AdjustedTotal         float64 `json:"adjusted_total"`
	AdjustedMarginPercent float64 `json:"adjusted_margin_percent"`
}

// CompetitiveMetrics are fixed positioning figures attached to a bid.
type CompetitiveMetrics struct {
	ResponseTimeMinutes      float64 `json:"response_time_minutes"`
	ManualResponseTimeHours  float64 `json:"manual_response_time_hours"`
	SpeedAdvantagePercent    float64 `json:"speed_advantage_percent"`
	AccuracyAdvantagePercent float64 `json:"accuracy_advantage_percent"`
}

// AdvisoryReport is the business-advisory stage output.
type AdvisoryReport struct {
	Operational OperationalSavings `json:"operational"`
	Sensitivity []SensitivityRow   `json:"sensitivity"`
	Competitive CompetitiveMetrics `json:"competitive"`
}

// AuditEntry is one stage/action/result record of the run audit log.
type AuditEntry struct {
	TS     string `json:"ts" format:"date-time"`
	Stage  string `json:"stage"`
	Action string `json:"action"`
	Result string `json:"result"`
}

// ConsolidatedBid is the final, submission-ready bid package. Created exactly
// once at the end of a successful run, immutable thereafter.
type ConsolidatedBid struct {
	RFPID               string             `json:"rfp_id"`
	SelectedSKUs        []SelectedSKU      `json:"selected_skus"`
	PricingLines        []PricingLine      `json:"pricing_lines"`
	TotalBidValue       float64            `json:"total_bid_value"`
	TechnicalCompliance float64            `json:"technical_compliance"`
	Advisory            *AdvisoryReport    `json:"advisory,omitempty"`
	RatesSnapshot       map[string]float64 `json:"rates_snapshot,omitempty"`
	AuditLog            []AuditEntry       `json:"audit_log,omitempty"`
	CreatedAt           string             `json:"created_at" format:"date-time"`
}

// Run is the persisted outcome of one workflow execution.
type Run struct {
	ID                  string           `json:"id"`
	RFPID               string           `json:"rfp_id"`
	Status              string           `json:"status"`
	Decision            string           `json:"decision,omitempty" enum:"approve,escalate,decline"`
	RiskScore           int              `json:"risk_score"`
	RetryCount          int              `json:"retry_count"`
	TotalBidValue       float64          `json:"total_bid_value"`
	TechnicalCompliance float64          `json:"technical_compliance"`
	Errors              []string         `json:"errors,omitempty"`
	Bid                 *ConsolidatedBid `json:"bid,omitempty"`
	StartedAt           string           `json:"started_at" format:"date-time"`
	CompletedAt         string           `json:"completed_at,omitempty" format:"date-time"`
}

// Event is one audit-log row as stored.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	RunID   string `json:"run_id,omitempty"`
	RFPID   string `json:"rfp_id,omitempty"`
	Stage   string `json:"stage"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}
