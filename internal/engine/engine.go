package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bidline/internal/catalog"
	"bidline/internal/config"
	"bidline/internal/domain"
	"bidline/internal/events"
	"bidline/internal/repo"
	"bidline/internal/workflow"
)

// Engine wires the workflow orchestrator to persistence: it loads RFPs,
// runs the pipeline, and records runs plus their audit events.
//
// The active configuration is published through an atomic pointer: rate
// updates swap in a new immutable Config value while concurrent requests
// keep reading a consistent one. Each run loads the config once at start,
// so in-flight runs are never affected by a swap.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time

	config *atomic.Pointer[config.Config]
}

func New(db *sql.DB, cfg *config.Config) Engine {
	holder := &atomic.Pointer[config.Config]{}
	holder.Store(cfg)
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Now:    time.Now,
		config: holder,
	}
}

// Config returns the currently published configuration.
func (e Engine) Config() *config.Config {
	if e.config == nil {
		return nil
	}
	return e.config.Load()
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CreateRFP validates and stores an intake record.
func (e Engine) CreateRFP(ctx context.Context, rfp domain.RFPRequest, actorID string) (domain.RFPRequest, error) {
	if rfp.ID == "" {
		return domain.RFPRequest{}, errors.New("rfp id is required")
	}
	if rfp.Title == "" {
		return domain.RFPRequest{}, errors.New("title is required")
	}
	if rfp.DueDate == "" {
		return domain.RFPRequest{}, errors.New("due date is required")
	}
	if len(rfp.Lines) == 0 {
		return domain.RFPRequest{}, errors.New("at least one line item is required")
	}
	if _, err := e.Repo.GetRFP(ctx, rfp.ID); err == nil {
		return domain.RFPRequest{}, fmt.Errorf("rfp %s already exists", rfp.ID)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.RFPRequest{}, err
	}
	rfp.CreatedAt = e.now().UTC().Format(time.RFC3339)
	lines, err := json.Marshal(rfp.Lines)
	if err != nil {
		return domain.RFPRequest{}, err
	}
	tests, err := json.Marshal(rfp.TestRequirements)
	if err != nil {
		return domain.RFPRequest{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.RFPRequest{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO rfps(id,title,client,due_date,lines_json,test_requirements_json,bid_bond_required,bid_bond_value,liquidated_damages,performance_bond_percent,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rfp.ID, rfp.Title, rfp.Client, rfp.DueDate, string(lines), string(tests),
		boolToInt(rfp.BidBondRequired), rfp.BidBondValue, boolToInt(rfp.LiquidatedDamages), rfp.PerformanceBondPercent,
		rfp.CreatedAt); err != nil {
		return domain.RFPRequest{}, fmt.Errorf("insert rfp: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "rfp.created", "", rfp.ID, "intake", actorID, events.EventPayload{
		"title": rfp.Title, "client": rfp.Client, "due_date": rfp.DueDate, "lines": len(rfp.Lines),
	}); err != nil {
		return domain.RFPRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.RFPRequest{}, err
	}
	return rfp, nil
}

// ProcessRFP runs the bid workflow for one stored RFP and persists the run
// with its full audit trail. The returned run is terminal; processing errors
// are recorded on it rather than returned, so batch callers keep going.
func (e Engine) ProcessRFP(ctx context.Context, rfpID, actorID string) (domain.Run, error) {
	cfg := e.Config()
	if cfg == nil {
		return domain.Run{}, errors.New("config not loaded")
	}
	rfp, err := e.Repo.GetRFP(ctx, rfpID)
	if err != nil {
		return domain.Run{}, err
	}

	run := domain.Run{
		ID:        uuid.NewString(),
		RFPID:     rfp.ID,
		Status:    workflow.StatusInitialized,
		StartedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Run{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertRunTx(ctx, tx, run); err != nil {
		return domain.Run{}, fmt.Errorf("insert run: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "run.started", run.ID, rfp.ID, "orchestrator", actorID, events.EventPayload{}); err != nil {
		return domain.Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Run{}, err
	}

	orch := &workflow.Orchestrator{
		Retriever: catalog.SQLRetriever{DB: e.DB},
		Config:    cfg,
		Now:       e.now,
	}
	st := orch.Run(ctx, rfp)

	run.Status = st.Status
	run.Decision = st.Decision
	run.RiskScore = st.RiskScore()
	run.RetryCount = st.RetryCount
	run.Errors = st.Errors
	run.Bid = st.Bid
	run.CompletedAt = e.now().UTC().Format(time.RFC3339)
	if st.Bid != nil {
		run.TotalBidValue = st.Bid.TotalBidValue
		run.TechnicalCompliance = st.Bid.TechnicalCompliance
	}

	tx, err = e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Run{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateRunTx(ctx, tx, run); err != nil {
		return domain.Run{}, fmt.Errorf("update run: %w", err)
	}
	for _, entry := range st.Audit {
		if err := e.Events.Append(ctx, tx, "run.stage", run.ID, rfp.ID, entry.Stage, actorID, events.EventPayload{
			"action": entry.Action, "result": entry.Result, "stage_ts": entry.TS,
		}); err != nil {
			return domain.Run{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, "run.completed", run.ID, rfp.ID, "decision", actorID, events.EventPayload{
		"status": run.Status, "decision": run.Decision, "total_bid_value": run.TotalBidValue,
	}); err != nil {
		return domain.Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Run{}, err
	}
	return run, nil
}

// ProcessAll runs the workflow for every stored RFP, at most limit runs in
// flight. Runs are independent: each captures its own rate snapshot and owns
// its state exclusively, so no cross-run locking is needed.
func (e Engine) ProcessAll(ctx context.Context, actorID string, limit int) ([]domain.Run, error) {
	rfps, err := e.Repo.ListRFPs(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}
	runs := make([]domain.Run, len(rfps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rfp := range rfps {
		g.Go(func() error {
			run, err := e.ProcessRFP(gctx, rfp.ID, actorID)
			if err != nil {
				return fmt.Errorf("process %s: %w", rfp.ID, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// UpdateRate stores a new commodity rate and returns the resulting config.
// The stored desk config is replaced as a whole value and published
// atomically once the transaction commits; in-flight runs keep the config
// they loaded at run start.
func (e Engine) UpdateRate(ctx context.Context, deskID, material string, rate float64, actorID string) (*config.Config, error) {
	cur := e.Config()
	if cur == nil {
		return nil, errors.New("config not loaded")
	}
	next, err := cur.WithRate(material, rate)
	if err != nil {
		return nil, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertDeskConfigTx(ctx, tx, deskID, next); err != nil {
		return nil, err
	}
	if err := e.Events.Append(ctx, tx, "rates.updated", "", "", "rates", actorID, events.EventPayload{
		"material": material, "rate_usd_mt": rate,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	e.config.Store(next)
	return next, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
