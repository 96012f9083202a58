package services

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/survey"
)

// DoseEntry is one row of the raw dose/modality review listing.
type DoseEntry struct {
	Dose     string `json:"dose"`
	Modality string `json:"modality"`
}

// DashboardSummary is the read-only projection over all persisted rows.
// Waiting is set when the store has no rows yet: that renders as a notice,
// never as an error.
type DashboardSummary struct {
	Waiting    bool                      `json:"waiting"`
	Total      int                       `json:"total"`
	Tallies    map[string]map[string]int `json:"tallies"`
	DoseReview []DoseEntry               `json:"dose_review"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type dashboardService struct {
	log    *logger.Logger
	store  RecordStore
	schema *survey.Schema
	ttl    time.Duration

	group singleflight.Group
	mu    sync.Mutex
	rows  [][]string
	at    time.Time
}

// NewDashboardService caches store reads for ttl to bound load on the
// remote store; concurrent cold-cache loads collapse into one fetch.
func NewDashboardService(log *logger.Logger, store RecordStore, sch *survey.Schema, ttl time.Duration) DashboardService {
	return &dashboardService{
		log:    log.With("service", "DashboardService"),
		store:  store,
		schema: sch,
		ttl:    ttl,
	}
}

func (d *dashboardService) load(ctx context.Context) ([][]string, error) {
	d.mu.Lock()
	if !d.at.IsZero() && time.Since(d.at) < d.ttl {
		rows := d.rows
		d.mu.Unlock()
		return rows, nil
	}
	d.mu.Unlock()

	v, err, _ := d.group.Do("rows", func() (interface{}, error) {
		rows, err := d.store.ReadAll(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.rows = rows
		d.at = time.Now()
		d.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([][]string), nil
}

func (d *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	rows, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	sum := &DashboardSummary{
		Tallies:    map[string]map[string]int{},
		DoseReview: []DoseEntry{},
	}
	if len(rows) == 0 {
		sum.Waiting = true
		return sum, nil
	}
	sum.Total = len(rows)

	doseIdx, modIdx := -1, -1
	for i, f := range d.schema.Fields {
		switch f.Key {
		case "dose_description":
			doseIdx = i
		case "modality_in_practice":
			modIdx = i
		}
		if f.Kind != survey.FieldEnum && f.Kind != survey.FieldBool {
			continue
		}
		tally := map[string]int{}
		for _, row := range rows {
			if v := strings.TrimSpace(cell(row, i)); v != "" {
				tally[v]++
			}
		}
		sum.Tallies[f.Key] = tally
	}

	if doseIdx >= 0 && modIdx >= 0 {
		for _, row := range rows {
			sum.DoseReview = append(sum.DoseReview, DoseEntry{
				Dose:     cell(row, doseIdx),
				Modality: cell(row, modIdx),
			})
		}
	}
	return sum, nil
}

func (d *dashboardService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := d.load(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(d.schema.Columns()); err != nil {
		return err
	}
	width := d.schema.Width()
	for _, row := range rows {
		padded := make([]string, width)
		for i := range padded {
			padded[i] = cell(row, i)
		}
		if err := cw.Write(padded); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
