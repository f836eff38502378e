package catalog_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"bidline/internal/catalog"
	"bidline/internal/db"
	"bidline/internal/domain"
	"bidline/internal/migrate"
	"bidline/internal/repo"
)

func newCatalogDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := (repo.Repo{DB: conn}).SeedCatalog(context.Background(), now); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return conn
}

func TestSQLRetrieverRanking(t *testing.T) {
	conn := newCatalogDB(t)
	r := catalog.SQLRetriever{DB: conn}
	spec := domain.ProductSpecification{
		Line: 1, Quantity: 5000,
		Material: "Copper", Insulation: "XLPE", Cores: 4, SizeMM2: 95, VoltageKV: 1.1,
	}

	got, err := r.Candidates(context.Background(), spec, 3)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	// Full attribute agreement first, size proximity breaking the tie
	// between the two exact-attribute rows.
	want := []string{"OEM-XLPE-4C-95", "OEM-XLPE-4C-120", "OEM-XLPE-4C-70"}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i, sku := range want {
		if got[i].SKU != sku {
			t.Fatalf("position %d = %s, want %s", i, got[i].SKU, sku)
		}
	}
	if got[0].BasePrice <= 0 || got[0].MetalWeightKgKm <= 0 {
		t.Fatal("pricing attributes not hydrated")
	}
	if len(got[0].Certifications) == 0 {
		t.Fatal("certifications not decoded")
	}
}

func TestSQLRetrieverIsDeterministic(t *testing.T) {
	conn := newCatalogDB(t)
	r := catalog.SQLRetriever{DB: conn}
	spec := domain.ProductSpecification{
		Line: 1, Quantity: 2000,
		Material: "Aluminium", Insulation: "PVC", Cores: 3, SizeMM2: 70, VoltageKV: 3.3,
	}

	first, err := r.Candidates(context.Background(), spec, 5)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	second, err := r.Candidates(context.Background(), spec, 5)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("lengths differ or empty: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SKU != second[i].SKU {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].SKU, second[i].SKU)
		}
	}
	if first[0].SKU != "OEM-PVC-3C-95" {
		t.Fatalf("top candidate = %s, want OEM-PVC-3C-95", first[0].SKU)
	}
}

func TestSQLRetrieverDefaultsK(t *testing.T) {
	conn := newCatalogDB(t)
	r := catalog.SQLRetriever{DB: conn}
	spec := domain.ProductSpecification{
		Line: 1, Material: "Copper", Insulation: "XLPE", Cores: 4, SizeMM2: 70, VoltageKV: 1.1,
	}
	got, err := r.Candidates(context.Background(), spec, 0)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d candidates with k=0, want the default 5", len(got))
	}
}

func TestStaticRetrieverPreservesOrder(t *testing.T) {
	skus := []domain.CandidateSKU{{SKU: "A"}, {SKU: "B"}, {SKU: "C"}}
	r := catalog.StaticRetriever{SKUs: skus}
	got, err := r.Candidates(context.Background(), domain.ProductSpecification{}, 2)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 2 || got[0].SKU != "A" || got[1].SKU != "B" {
		t.Fatalf("got %v, want first two in insertion order", got)
	}
}
