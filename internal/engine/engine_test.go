package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bidline/internal/config"
	"bidline/internal/db"
	"bidline/internal/domain"
	"bidline/internal/engine"
	"bidline/internal/migrate"
	"bidline/internal/repo"
	"bidline/internal/workflow"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	Now    time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := engine.New(conn, config.Default("default-desk"))
	eng.Now = func() time.Time { return now }
	ctx := context.Background()
	if _, err := eng.Repo.SeedCatalog(ctx, now); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if _, err := eng.Repo.SeedRFPs(ctx, now); err != nil {
		t.Fatalf("seed rfps: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Now: now}
}

func TestProcessRFPEscalatesHighRiskBid(t *testing.T) {
	env := newTestEnv(t)

	// The sample government RFP carries a bond, an LD clause and a 10%
	// performance bond: risk 6, above the auto-approve line.
	run, err := env.Engine.ProcessRFP(env.Ctx, "RFP-GOV-2025-001", "tester")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if run.Status != workflow.DecisionEscalate || run.Decision != workflow.DecisionEscalate {
		t.Fatalf("status=%s decision=%s, want escalate (errors %v)", run.Status, run.Decision, run.Errors)
	}
	if run.RiskScore != 6 {
		t.Fatalf("risk = %d, want 6", run.RiskScore)
	}
	if run.TotalBidValue <= 0 {
		t.Fatalf("total bid value = %.2f, want positive", run.TotalBidValue)
	}
	if run.TechnicalCompliance != 100 {
		t.Fatalf("compliance = %.2f, want 100", run.TechnicalCompliance)
	}
	if run.Bid == nil || len(run.Bid.PricingLines) != 2 {
		t.Fatal("consolidated bid missing or wrong line count")
	}

	stored, err := env.Engine.Repo.GetRun(env.Ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if stored.Status != run.Status || stored.Decision != run.Decision || stored.TotalBidValue != run.TotalBidValue {
		t.Fatalf("stored run diverges: %+v", stored)
	}

	evts, err := env.Engine.Repo.RunEvents(env.Ctx, run.ID)
	if err != nil {
		t.Fatalf("run events: %v", err)
	}
	if len(evts) < 3 {
		t.Fatalf("got %d events, want start + stages + completion", len(evts))
	}
	if evts[0].Type != "run.started" {
		t.Fatalf("first event = %s, want run.started", evts[0].Type)
	}
	if evts[len(evts)-1].Type != "run.completed" {
		t.Fatalf("last event = %s, want run.completed", evts[len(evts)-1].Type)
	}
}

func TestProcessRFPDeclinesBeyondWindow(t *testing.T) {
	env := newTestEnv(t)

	// The sample PSU RFP is due in 120 days, outside the 90-day window.
	run, err := env.Engine.ProcessRFP(env.Ctx, "RFP-PSU-2025-002", "tester")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if run.Status != workflow.StatusDeclinedAtScreening {
		t.Fatalf("status = %s, want %s", run.Status, workflow.StatusDeclinedAtScreening)
	}
	if run.Decision != workflow.DecisionDecline {
		t.Fatalf("decision = %s, want decline", run.Decision)
	}
	if run.Bid != nil {
		t.Fatal("declined run must not carry a bid")
	}
}

func TestProcessRFPUnknown(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ProcessRFP(env.Ctx, "RFP-MISSING", "tester")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProcessAll(t *testing.T) {
	env := newTestEnv(t)
	runs, err := env.Engine.ProcessAll(env.Ctx, "tester", 2)
	if err != nil {
		t.Fatalf("process all: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	byRFP := map[string]domain.Run{}
	for _, run := range runs {
		byRFP[run.RFPID] = run
	}
	if byRFP["RFP-GOV-2025-001"].Decision != workflow.DecisionEscalate {
		t.Fatalf("gov run decision = %s, want escalate", byRFP["RFP-GOV-2025-001"].Decision)
	}
	if byRFP["RFP-PSU-2025-002"].Status != workflow.StatusDeclinedAtScreening {
		t.Fatalf("psu run status = %s, want declined_at_screening", byRFP["RFP-PSU-2025-002"].Status)
	}

	stored, err := env.Engine.Repo.ListRuns(env.Ctx, repo.RunFilters{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d runs, want 2", len(stored))
	}
}

func TestCreateRFPValidationAndConflict(t *testing.T) {
	env := newTestEnv(t)
	rfp := domain.RFPRequest{
		ID:      "RFP-NEW-001",
		Title:   "New Supply",
		DueDate: env.Now.AddDate(0, 0, 45).Format("2006-01-02"),
		Lines: []domain.LineItem{
			{Line: 1, Quantity: 100, Material: "Copper", Insulation: "XLPE", Cores: 4, SizeMM2: 70, VoltageKV: 1.1},
		},
	}
	created, err := env.Engine.CreateRFP(env.Ctx, rfp, "tester")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CreatedAt == "" {
		t.Fatal("created_at not stamped")
	}
	if _, err := env.Engine.CreateRFP(env.Ctx, rfp, "tester"); err == nil {
		t.Fatal("expected conflict on duplicate id")
	}

	bad := rfp
	bad.ID = ""
	if _, err := env.Engine.CreateRFP(env.Ctx, bad, "tester"); err == nil {
		t.Fatal("expected error for missing id")
	}
	bad = rfp
	bad.ID = "RFP-NEW-002"
	bad.Lines = nil
	if _, err := env.Engine.CreateRFP(env.Ctx, bad, "tester"); err == nil {
		t.Fatal("expected error for empty lines")
	}
}

func TestUpdateRatePublishesNewConfig(t *testing.T) {
	env := newTestEnv(t)
	before := env.Engine.Config()
	snapshot := before.RateSnapshot()

	next, err := env.Engine.UpdateRate(env.Ctx, "default-desk", "Copper", 9750, "tester")
	if err != nil {
		t.Fatalf("update rate: %v", err)
	}
	if next.Rates["Copper"] != 9750 {
		t.Fatalf("new rate = %.0f, want 9750", next.Rates["Copper"])
	}
	if env.Engine.Config().Rates["Copper"] != 9750 {
		t.Fatalf("published rate = %.0f, want 9750", env.Engine.Config().Rates["Copper"])
	}
	// The old config value and any snapshot taken from it are untouched,
	// so a run that started before the update keeps its rates.
	if before.Rates["Copper"] != 9200 || snapshot["Copper"] != 9200 {
		t.Fatalf("pre-update config mutated: %.0f / %.0f", before.Rates["Copper"], snapshot["Copper"])
	}

	stored, err := env.Engine.Repo.GetDeskConfig(env.Ctx, "default-desk")
	if err != nil {
		t.Fatalf("get desk config: %v", err)
	}
	if stored.Rates["Copper"] != 9750 {
		t.Fatalf("stored rate = %.0f, want 9750", stored.Rates["Copper"])
	}

	if _, err := env.Engine.UpdateRate(env.Ctx, "default-desk", "Unobtanium", 1, "tester"); err == nil {
		t.Fatal("expected error for unknown commodity")
	}
}
