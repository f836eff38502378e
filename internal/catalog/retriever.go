// Package catalog retrieves candidate SKUs for a product specification.
//
// Retrieval ranks catalog rows by weighted attribute agreement with the
// specification, then by size proximity, then by SKU for a stable order.
// Ranking order matters downstream: scoring ties are broken by retrieval
// position, so the ordering here must be deterministic.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bidline/internal/domain"
)

// Retriever returns up to k candidate SKUs for a specification, best first.
type Retriever interface {
	Candidates(ctx context.Context, spec domain.ProductSpecification, k int) ([]domain.CandidateSKU, error)
}

// SQLRetriever ranks directly in SQLite. The rank expression mirrors the
// match weights (material 30, cores 25, size 25, insulation 20) so retrieval
// order and score order mostly agree.
type SQLRetriever struct {
	DB *sql.DB
}

func (r SQLRetriever) Candidates(ctx context.Context, spec domain.ProductSpecification, k int) ([]domain.CandidateSKU, error) {
	if k <= 0 {
		k = 5
	}
	query := `SELECT sku,description,material,insulation,cores,size_mm2,voltage_kv,certifications_json,base_price,metal_weight_kg_km,created_at,
		(CASE WHEN material=? THEN 30 ELSE 0 END
		 + CASE WHEN cores=? THEN 25 ELSE 0 END
		 + CASE WHEN size_mm2>=? THEN 25 ELSE 0 END
		 + CASE WHEN insulation=? THEN 20 ELSE 0 END) AS rank
	FROM skus
	ORDER BY rank DESC, ABS(size_mm2-?) ASC, sku ASC
	LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, query, spec.Material, spec.Cores, spec.SizeMM2, spec.Insulation, spec.SizeMM2, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CandidateSKU
	for rows.Next() {
		var s domain.CandidateSKU
		var desc sql.NullString
		var certs string
		var rank int
		if err := rows.Scan(&s.SKU, &desc, &s.Material, &s.Insulation, &s.Cores, &s.SizeMM2, &s.VoltageKV, &certs, &s.BasePrice, &s.MetalWeightKgKm, &s.CreatedAt, &rank); err != nil {
			return nil, err
		}
		if desc.Valid {
			s.Description = desc.String
		}
		if err := json.Unmarshal([]byte(certs), &s.Certifications); err != nil {
			return nil, fmt.Errorf("sku %s certifications: %w", s.SKU, err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// StaticRetriever serves candidates from memory in insertion order. Used in
// tests and anywhere a DB is not in play.
type StaticRetriever struct {
	SKUs []domain.CandidateSKU
}

func (r StaticRetriever) Candidates(ctx context.Context, spec domain.ProductSpecification, k int) ([]domain.CandidateSKU, error) {
	if k <= 0 || k > len(r.SKUs) {
		k = len(r.SKUs)
	}
	out := make([]domain.CandidateSKU, k)
	copy(out, r.SKUs[:k])
	return out, nil
}
