package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bidline/internal/config"
	"bidline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r Repo) InsertSKU(ctx context.Context, s domain.CandidateSKU) error {
	certs, err := marshalJSON(s.Certifications)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO skus(sku,description,material,insulation,cores,size_mm2,voltage_kv,certifications_json,base_price,metal_weight_kg_km,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		s.SKU, nullable(s.Description), s.Material, s.Insulation, s.Cores, s.SizeMM2, s.VoltageKV, certs, s.BasePrice, s.MetalWeightKgKm, s.CreatedAt)
	return err
}

func scanSKU(scan func(dest ...any) error) (domain.CandidateSKU, error) {
	var s domain.CandidateSKU
	var desc sql.NullString
	var certs string
	err := scan(&s.SKU, &desc, &s.Material, &s.Insulation, &s.Cores, &s.SizeMM2, &s.VoltageKV, &certs, &s.BasePrice, &s.MetalWeightKgKm, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if desc.Valid {
		s.Description = desc.String
	}
	if err := json.Unmarshal([]byte(certs), &s.Certifications); err != nil {
		return s, fmt.Errorf("sku %s certifications: %w", s.SKU, err)
	}
	return s, nil
}

const skuColumns = `sku,description,material,insulation,cores,size_mm2,voltage_kv,certifications_json,base_price,metal_weight_kg_km,created_at`

func (r Repo) GetSKU(ctx context.Context, sku string) (domain.CandidateSKU, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+skuColumns+` FROM skus WHERE sku=?`, sku)
	return scanSKU(row.Scan)
}

func (r Repo) ListSKUs(ctx context.Context) ([]domain.CandidateSKU, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+skuColumns+` FROM skus ORDER BY sku ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CandidateSKU
	for rows.Next() {
		s, err := scanSKU(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) CountSKUs(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM skus`).Scan(&n)
	return n, err
}

func (r Repo) InsertRFP(ctx context.Context, rfp domain.RFPRequest) error {
	lines, err := marshalJSON(rfp.Lines)
	if err != nil {
		return err
	}
	tests, err := marshalJSON(rfp.TestRequirements)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO rfps(id,title,client,due_date,lines_json,test_requirements_json,bid_bond_required,bid_bond_value,liquidated_damages,performance_bond_percent,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rfp.ID, rfp.Title, rfp.Client, rfp.DueDate, lines, tests,
		boolToInt(rfp.BidBondRequired), rfp.BidBondValue, boolToInt(rfp.LiquidatedDamages), rfp.PerformanceBondPercent, rfp.CreatedAt)
	return err
}

const rfpColumns = `id,title,client,due_date,lines_json,test_requirements_json,bid_bond_required,bid_bond_value,liquidated_damages,performance_bond_percent,created_at`

func scanRFP(scan func(dest ...any) error) (domain.RFPRequest, error) {
	var rfp domain.RFPRequest
	var lines, tests string
	var bond, ld int
	err := scan(&rfp.ID, &rfp.Title, &rfp.Client, &rfp.DueDate, &lines, &tests, &bond, &rfp.BidBondValue, &ld, &rfp.PerformanceBondPercent, &rfp.CreatedAt)
	if err == sql.ErrNoRows {
		return rfp, ErrNotFound
	}
	if err != nil {
		return rfp, err
	}
	rfp.BidBondRequired = bond != 0
	rfp.LiquidatedDamages = ld != 0
	if err := json.Unmarshal([]byte(lines), &rfp.Lines); err != nil {
		return rfp, fmt.Errorf("rfp %s lines: %w", rfp.ID, err)
	}
	if err := json.Unmarshal([]byte(tests), &rfp.TestRequirements); err != nil {
		return rfp, fmt.Errorf("rfp %s test requirements: %w", rfp.ID, err)
	}
	return rfp, nil
}

func (r Repo) GetRFP(ctx context.Context, id string) (domain.RFPRequest, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+rfpColumns+` FROM rfps WHERE id=?`, id)
	return scanRFP(row.Scan)
}

func (r Repo) ListRFPs(ctx context.Context) ([]domain.RFPRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+rfpColumns+` FROM rfps ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RFPRequest
	for rows.Next() {
		rfp, err := scanRFP(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, rfp)
	}
	return res, rows.Err()
}

func (r Repo) InsertRunTx(ctx context.Context, tx *sql.Tx, run domain.Run) error {
	errs, err := marshalJSON(run.Errors)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id,rfp_id,status,decision,risk_score,retry_count,total_bid_value,technical_compliance,bid_json,errors_json,started_at,completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.RFPID, run.Status, nullable(run.Decision), run.RiskScore, run.RetryCount,
		run.TotalBidValue, run.TechnicalCompliance, nil, errs, run.StartedAt, nullable(run.CompletedAt))
	return err
}

func (r Repo) UpdateRunTx(ctx context.Context, tx *sql.Tx, run domain.Run) error {
	errs, err := marshalJSON(run.Errors)
	if err != nil {
		return err
	}
	var bid any
	if run.Bid != nil {
		payload, err := marshalJSON(run.Bid)
		if err != nil {
			return err
		}
		bid = payload
	}
	res, err := tx.ExecContext(ctx, `UPDATE runs SET status=?, decision=?, risk_score=?, retry_count=?, total_bid_value=?, technical_compliance=?, bid_json=?, errors_json=?, completed_at=? WHERE id=?`,
		run.Status, nullable(run.Decision), run.RiskScore, run.RetryCount, run.TotalBidValue, run.TechnicalCompliance,
		bid, errs, nullable(run.CompletedAt), run.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `id,rfp_id,status,decision,risk_score,retry_count,total_bid_value,technical_compliance,bid_json,errors_json,started_at,completed_at`

func scanRun(scan func(dest ...any) error) (domain.Run, error) {
	var run domain.Run
	var decision, bid, completed sql.NullString
	var errs string
	err := scan(&run.ID, &run.RFPID, &run.Status, &decision, &run.RiskScore, &run.RetryCount,
		&run.TotalBidValue, &run.TechnicalCompliance, &bid, &errs, &run.StartedAt, &completed)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	if err != nil {
		return run, err
	}
	if decision.Valid {
		run.Decision = decision.String
	}
	if completed.Valid {
		run.CompletedAt = completed.String
	}
	if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
		return run, fmt.Errorf("run %s errors: %w", run.ID, err)
	}
	if bid.Valid && bid.String != "" {
		var b domain.ConsolidatedBid
		if err := json.Unmarshal([]byte(bid.String), &b); err != nil {
			return run, fmt.Errorf("run %s bid: %w", run.ID, err)
		}
		run.Bid = &b
	}
	return run, nil
}

func (r Repo) GetRun(ctx context.Context, id string) (domain.Run, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	return scanRun(row.Scan)
}

type RunFilters struct {
	RFPID    string
	Status   string
	Decision string
	Limit    int
}

func (r Repo) ListRuns(ctx context.Context, f RunFilters) ([]domain.Run, error) {
	var clauses []string
	var args []any
	if f.RFPID != "" {
		clauses = append(clauses, "rfp_id=?")
		args = append(args, f.RFPID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Decision != "" {
		clauses = append(clauses, "decision=?")
		args = append(args, f.Decision)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + runColumns + ` FROM runs ` + where + ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, rows.Err()
}

func (r Repo) UpsertDeskConfig(ctx context.Context, deskID string, cfg *config.Config) error {
	return upsertDeskConfig(ctx, r.DB, nil, deskID, cfg)
}

func (r Repo) UpsertDeskConfigTx(ctx context.Context, tx *sql.Tx, deskID string, cfg *config.Config) error {
	return upsertDeskConfig(ctx, nil, tx, deskID, cfg)
}

func upsertDeskConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, deskID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Desk.ID = deskID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO desk_configs(desk_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(desk_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, deskID, string(payload), now, now)
	return err
}

func (r Repo) GetDeskConfig(ctx context.Context, deskID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM desk_configs WHERE desk_id=?`, deskID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Desk.ID == "" {
		cfg.Desk.ID = deskID
	}
	return &cfg, cfg.Validate()
}

func (r Repo) LatestEvents(ctx context.Context, limit int, runID, rfpID, evtType string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if runID != "" {
		clauses = append(clauses, "run_id=?")
		args = append(args, runID)
	}
	if rfpID != "" {
		clauses = append(clauses, "rfp_id=?")
		args = append(args, rfpID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,run_id,rfp_id,stage,actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var runID, rfpID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &runID, &rfpID, &e.Stage, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if runID.Valid {
			e.RunID = runID.String
		}
		if rfpID.Valid {
			e.RFPID = rfpID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// RunEvents returns the audit trail for one run in chronological order.
func (r Repo) RunEvents(ctx context.Context, runID string) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,ts,type,run_id,rfp_id,stage,actor_id,payload_json FROM events WHERE run_id=? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var rid, rfpID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &rid, &rfpID, &e.Stage, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if rid.Valid {
			e.RunID = rid.String
		}
		if rfpID.Valid {
			e.RFPID = rfpID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
