package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models bidline.yml. It is constructed once and treated as immutable;
// rate updates produce a new Config value rather than mutating this one.
type Config struct {
	Desk struct {
		ID string `yaml:"id"`
	} `yaml:"desk"`
	Qualification Qualification `yaml:"qualification"`
	Risk          RiskWeights   `yaml:"risk"`
	Matching      Matching      `yaml:"matching"`
	Pricing       Pricing       `yaml:"pricing"`
	Advisory      Advisory      `yaml:"advisory"`
	// Rates maps commodity/material name to USD per metric ton.
	Rates map[string]float64 `yaml:"rates"`
	// TestPricing maps a test or certification name to its INR cost.
	TestPricing map[string]float64 `yaml:"test_pricing"`
}

type Qualification struct {
	WindowDays  int `yaml:"window_days"`
	RiskCeiling int `yaml:"risk_ceiling"`
}

type RiskWeights struct {
	UrgentDays        int     `yaml:"urgent_days"`
	UrgentPoints      int     `yaml:"urgent_points"`
	ModerateDays      int     `yaml:"moderate_days"`
	ModeratePoints    int     `yaml:"moderate_points"`
	BidBondPoints     int     `yaml:"bid_bond_points"`
	LDClausePoints    int     `yaml:"ld_clause_points"`
	PerfBondPoints    int     `yaml:"perf_bond_points"`
	PerfBondThreshold float64 `yaml:"perf_bond_threshold"`
}

type Matching struct {
	Threshold        float64 `yaml:"threshold"`
	MaxRetries       int     `yaml:"max_retries"`
	ToleranceStepMM2 float64 `yaml:"tolerance_step_mm2"`
	CandidateK       int     `yaml:"candidate_k"`
}

type Pricing struct {
	TargetMargin    float64 `yaml:"target_margin"`
	MinimumMargin   float64 `yaml:"minimum_margin"`
	FxRate          float64 `yaml:"fx_rate"`
	RiskPremiumRate float64 `yaml:"risk_premium_rate"`
}

type Advisory struct {
	ManualHours      float64 `yaml:"manual_hours"`
	HourlyRateUSD    float64 `yaml:"hourly_rate_usd"`
	AutomatedMinutes float64 `yaml:"automated_minutes"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with bid config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Desk.ID == "" {
		return fmt.Errorf("config.desk.id is required")
	}
	if c.Qualification.WindowDays <= 0 {
		return fmt.Errorf("config.qualification.window_days must be positive")
	}
	if c.Qualification.RiskCeiling < 0 || c.Qualification.RiskCeiling > 10 {
		return fmt.Errorf("config.qualification.risk_ceiling must be in [0,10]")
	}
	if c.Risk.UrgentDays <= 0 || c.Risk.ModerateDays <= c.Risk.UrgentDays {
		return fmt.Errorf("config.risk deadline bands must satisfy 0 < urgent_days < moderate_days")
	}
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 100 {
		return fmt.Errorf("config.matching.threshold must be in (0,100]")
	}
	if c.Matching.MaxRetries < 0 {
		return fmt.Errorf("config.matching.max_retries must be non-negative")
	}
	if c.Matching.ToleranceStepMM2 < 0 {
		return fmt.Errorf("config.matching.tolerance_step_mm2 must be non-negative")
	}
	if c.Matching.CandidateK <= 0 {
		return fmt.Errorf("config.matching.candidate_k must be positive")
	}
	if c.Pricing.TargetMargin <= 0 {
		return fmt.Errorf("config.pricing.target_margin must be positive")
	}
	if c.Pricing.MinimumMargin <= 0 || c.Pricing.MinimumMargin > c.Pricing.TargetMargin {
		return fmt.Errorf("config.pricing.minimum_margin must be in (0, target_margin]")
	}
	if c.Pricing.FxRate <= 0 {
		return fmt.Errorf("config.pricing.fx_rate must be positive")
	}
	if c.Pricing.RiskPremiumRate < 0 {
		return fmt.Errorf("config.pricing.risk_premium_rate must be non-negative")
	}
	if len(c.Rates) == 0 {
		return fmt.Errorf("config.rates must name at least one commodity")
	}
	for name, rate := range c.Rates {
		if name == "" {
			return fmt.Errorf("config.rates contains an empty commodity name")
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return fmt.Errorf("config.rates[%s] must be a positive finite rate", name)
		}
	}
	for name, cost := range c.TestPricing {
		if name == "" {
			return fmt.Errorf("config.test_pricing contains an empty test name")
		}
		if cost < 0 {
			return fmt.Errorf("config.test_pricing[%s] must be non-negative", name)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "bidline.yml")
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a desk.
func Default(deskID string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, deskID))).Decode(&cfg)
	cfg.Desk.ID = deskID
	return &cfg
}

// WithRate returns a copy of the config with one commodity rate replaced.
// The receiver is left untouched so in-flight runs keep their snapshot.
func (c *Config) WithRate(material string, rate float64) (*Config, error) {
	if _, ok := c.Rates[material]; !ok {
		return nil, fmt.Errorf("unknown commodity %s", material)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("rate for %s must be positive", material)
	}
	next := *c
	next.Rates = make(map[string]float64, len(c.Rates))
	for k, v := range c.Rates {
		next.Rates[k] = v
	}
	next.Rates[material] = rate
	return &next, nil
}

// RateSnapshot returns a defensive copy of the commodity rate table for one run.
func (c *Config) RateSnapshot() map[string]float64 {
	snap := make(map[string]float64, len(c.Rates))
	for k, v := range c.Rates {
		snap[k] = v
	}
	return snap
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `desk:
  id: %s

qualification:
  window_days: 90
  risk_ceiling: 7

risk:
  urgent_days: 30
  urgent_points: 4
  moderate_days: 60
  moderate_points: 2
  bid_bond_points: 2
  ld_clause_points: 3
  perf_bond_points: 1
  perf_bond_threshold: 10

matching:
  threshold: 80.0
  max_retries: 3
  tolerance_step_mm2: 10
  candidate_k: 5

pricing:
  target_margin: 1.15
  minimum_margin: 1.05
  fx_rate: 83.0
  risk_premium_rate: 0.02

advisory:
  manual_hours: 48
  hourly_rate_usd: 50
  automated_minutes: 2

rates:
  Copper: 9200
  Aluminium: 2400

test_pricing:
  "High Voltage Dielectric Test": 50000
  "Conductor Resistance Check": 10000
  "Site Acceptance Test (SAT)": 120000
  "Fire Resistance Test": 80000
  "UL Certification": 200000
  "UL": 200000
  "IS-1554": 5000
  "IEC-60502": 4000
  "IS-7098": 3000
  "Standard Acceptance": 10000
`
