package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/asocolnef/epiaki-backend/internal/survey"
)

func testRows() [][]string {
	return [][]string{
		{"Single", "University", "Mixed", "Standard", "Continuous", "25 ml/kg/h", "Citrate", "true"},
		{"Multiple", "Private", "Nephrology-led", "Accelerated", "Continuous", "30 ml/kg/h", "Heparin", "false"},
		{"Single", "University", "ICU-led", "Volume-driven", "Intermittent", "", "None", ""},
	}
}

func newTestDashboard(t *testing.T, store RecordStore, ttl time.Duration) DashboardService {
	t.Helper()
	sch, err := survey.Load("v2")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return NewDashboardService(newTestLogger(t), store, sch, ttl)
}

func TestSummaryAggregates(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	dash := newTestDashboard(t, store, time.Minute)

	sum, err := dash.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Waiting {
		t.Fatal("waiting=true with rows present")
	}
	if sum.Total != 3 {
		t.Fatalf("total=%d, want 3", sum.Total)
	}
	if got := sum.Tallies["primary_center_type"]["University"]; got != 2 {
		t.Fatalf("University tally=%d, want 2", got)
	}
	if got := sum.Tallies["anticoagulation_choice"]["Citrate"]; got != 1 {
		t.Fatalf("Citrate tally=%d, want 1", got)
	}
	// Empty cells never tally.
	if got := sum.Tallies["resource_gap_flag"][""]; got != 0 {
		t.Fatalf("empty-value tally=%d, want 0", got)
	}
	if len(sum.DoseReview) != 3 {
		t.Fatalf("dose review len=%d, want 3", len(sum.DoseReview))
	}
	if sum.DoseReview[1].Dose != "30 ml/kg/h" || sum.DoseReview[1].Modality != "Continuous" {
		t.Fatalf("dose review row=%+v", sum.DoseReview[1])
	}
}

func TestSummaryWaitingWhenEmpty(t *testing.T) {
	dash := newTestDashboard(t, &fakeStore{}, time.Minute)
	sum, err := dash.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !sum.Waiting || sum.Total != 0 {
		t.Fatalf("summary=%+v, want waiting", sum)
	}
}

func TestSummaryCachesWithinTTL(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	dash := newTestDashboard(t, store, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := dash.Summary(context.Background()); err != nil {
			t.Fatalf("Summary %d: %v", i, err)
		}
	}
	if store.readCalls != 1 {
		t.Fatalf("readCalls=%d, want 1 (cache within TTL)", store.readCalls)
	}
}

func TestSummaryRefreshesAfterTTL(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	dash := newTestDashboard(t, store, 0)

	if _, err := dash.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if _, err := dash.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if store.readCalls != 2 {
		t.Fatalf("readCalls=%d, want 2 (zero TTL never caches)", store.readCalls)
	}
}

func TestExportCSV(t *testing.T) {
	rows := testRows()
	// A short row from an old seven-column conversation: the export pads
	// it back to full width.
	rows = append(rows, []string{"Multiple", "Public", "Mixed", "Standard", "Hybrid", "SLED 8h", "Heparin"})
	store := &fakeStore{rows: rows}
	dash := newTestDashboard(t, store, time.Minute)

	var buf bytes.Buffer
	if err := dash.ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines=%d, want header + 4 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Multi-Empleo,") {
		t.Fatalf("header=%q", lines[0])
	}
	for i, line := range lines {
		if got := strings.Count(line, ","); got != 7 {
			t.Fatalf("line %d has %d commas, want 7 (full-width row)", i, got)
		}
	}
}

func TestSummaryStoreErrorSurfaces(t *testing.T) {
	store := &fakeStore{readErr: context.DeadlineExceeded}
	dash := newTestDashboard(t, store, time.Minute)
	if _, err := dash.Summary(context.Background()); err == nil {
		t.Fatal("store error should surface")
	}
}
