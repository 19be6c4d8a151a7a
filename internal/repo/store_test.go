package repo

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(session string, createdAt time.Time, finalCount int) models.AnalysisResult {
	return models.AnalysisResult{
		SessionID:  session,
		SampleRate: 100,
		Channels: []models.ChannelDetection{
			{Label: "submental", Thresholds: models.Thresholds{High: 2, Low: 1}, Events: []models.Event{{Start: 500, End: 559}}},
		},
		Events:    []models.Event{{Start: 500, End: 559}},
		Features:  []models.FeatureVector{{Peak: 2, DurationSec: 0.6, PeakIndex: 500}},
		Stats:     models.ProcessingStats{Original: finalCount + 1, AfterPeakFilter: finalCount, Final: finalCount, RemovalRate: 25},
		Params:    models.DetectionParams{HighFactor: 3, LowFactor: 1.5, IntervalMethod: models.IntervalPeakToPeak},
		CreatedAt: createdAt,
	}
}

func TestStoreRoundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := sampleResult("s-1", time.Now().UTC().Truncate(time.Second), 3)
	id, err := store.StoreAnalysis(ctx, in)
	if err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated analysis ID")
	}

	out, err := store.GetAnalysis(ctx, id)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if out.AnalysisID != id {
		t.Errorf("AnalysisID = %q, want %q", out.AnalysisID, id)
	}
	if out.SessionID != in.SessionID || out.SampleRate != in.SampleRate {
		t.Errorf("metadata mismatch: %+v", out)
	}
	if len(out.Events) != 1 || out.Events[0] != in.Events[0] {
		t.Errorf("events mismatch: %v", out.Events)
	}
	if out.Stats != in.Stats {
		t.Errorf("stats mismatch: %+v vs %+v", out.Stats, in.Stats)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetAnalysis(context.Background(), "no-such-id"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestStoreListFiltersAndOrders(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i, session := range []string{"s-1", "s-2", "s-1"} {
		r := sampleResult(session, base.Add(time.Duration(i)*time.Minute), i+1)
		if _, err := store.StoreAnalysis(ctx, r); err != nil {
			t.Fatalf("StoreAnalysis %d: %v", i, err)
		}
	}

	all, err := store.ListAnalyses(ctx, models.ListAnalysesRequest{})
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 analyses, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("results not newest-first at index %d", i)
		}
	}

	filtered, err := store.ListAnalyses(ctx, models.ListAnalysesRequest{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("ListAnalyses filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 analyses for s-1, got %d", len(filtered))
	}
	for _, r := range filtered {
		if r.SessionID != "s-1" {
			t.Errorf("unexpected session %q in filtered results", r.SessionID)
		}
	}

	limited, err := store.ListAnalyses(ctx, models.ListAnalysesRequest{Limit: 1})
	if err != nil {
		t.Fatalf("ListAnalyses limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 analysis with limit, got %d", len(limited))
	}
}

func TestStoreSummary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	finals := []int{2, 4}
	for i, session := range []string{"s-1", "s-2"} {
		r := sampleResult(session, base.Add(time.Duration(i)*time.Minute), finals[i])
		if _, err := store.StoreAnalysis(ctx, r); err != nil {
			t.Fatalf("StoreAnalysis: %v", err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalAnalyses != 2 || summary.UniqueSessions != 2 {
		t.Errorf("counts = %d/%d, want 2/2", summary.TotalAnalyses, summary.UniqueSessions)
	}
	if summary.TotalEvents != 6 {
		t.Errorf("TotalEvents = %d, want 6", summary.TotalEvents)
	}
	if math.Abs(summary.MeanFinalCount-3) > 1e-9 {
		t.Errorf("MeanFinalCount = %g, want 3", summary.MeanFinalCount)
	}
	if math.Abs(summary.MeanRemoval-25) > 1e-9 {
		t.Errorf("MeanRemoval = %g, want 25", summary.MeanRemoval)
	}
}

func TestStoreSummaryEmpty(t *testing.T) {
	store := openTestStore(t)
	summary, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalAnalyses != 0 || summary.TotalEvents != 0 {
		t.Errorf("empty store summary = %+v, want zeros", summary)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	got := pg.rebind("SELECT * FROM analyses WHERE id = ? AND session_id = ?")
	want := "SELECT * FROM analyses WHERE id = $1 AND session_id = $2"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &Store{driver: "sqlite3"}
	q := "SELECT ?"
	if got := lite.rebind(q); got != q {
		t.Errorf("sqlite rebind should be identity, got %q", got)
	}
}
