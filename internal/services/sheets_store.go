package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/platform/gcp"
	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/survey"
	"github.com/asocolnef/epiaki-backend/internal/utils"
)

// RecordStore is the remote tabular store boundary: one append per
// completed survey, full ordered row set on read. Concurrency safety of
// simultaneous appends is the remote store's problem, not ours.
type RecordStore interface {
	Append(ctx context.Context, rec *domain.SurveyRecord) error
	ReadAll(ctx context.Context) ([][]string, error)
}

type sheetsStore struct {
	log    *logger.Logger
	sheets *sheets.Service
	drive  *drive.Service
	schema *survey.Schema
	name   string

	mu sync.Mutex
	id string
}

// NewSheetsStore opens the Google Sheets backed store. The spreadsheet is
// addressed by its fixed logical name (resolved once through a Drive
// query), or directly by SHEETS_SPREADSHEET_ID when set.
func NewSheetsStore(log *logger.Logger, sch *survey.Schema) (RecordStore, error) {
	opts, err := gcp.ClientOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope))

	ctx := context.Background()
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	return &sheetsStore{
		log:    log.With("service", "SheetsStore"),
		sheets: sheetsSvc,
		drive:  driveSvc,
		schema: sch,
		name:   utils.GetEnv("SHEETS_SPREADSHEET_NAME", "Resultados_EpiAKI", log),
		id:     strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID")),
	}, nil
}

func (s *sheetsStore) resolveID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" {
		return s.id, nil
	}
	q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(s.name, "'", `\'`))
	list, err := s.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(2).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("look up spreadsheet %q: %w", s.name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found (is it shared with the service account?)", s.name)
	}
	s.id = list.Files[0].Id
	s.log.Info("Spreadsheet resolved", "name", s.name, "spreadsheet_id", s.id)
	return s.id, nil
}

func (s *sheetsStore) Append(ctx context.Context, rec *domain.SurveyRecord) error {
	id, err := s.resolveID(ctx)
	if err != nil {
		return err
	}
	row := s.schema.Row(rec)
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}
	_, err = s.sheets.Spreadsheets.Values.Append(id, "A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append survey row: %w", err)
	}
	return nil
}

func (s *sheetsStore) ReadAll(ctx context.Context) ([][]string, error) {
	id, err := s.resolveID(ctx)
	if err != nil {
		return nil, err
	}
	readRange := "A:" + columnLetter(s.schema.Width())
	resp, err := s.sheets.Spreadsheets.Values.Get(id, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read survey rows: %w", err)
	}

	width := s.schema.Width()
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, width)
		for i := 0; i < width && i < len(raw); i++ {
			row[i] = fmt.Sprint(raw[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnLetter maps a 1-based column count to the letter of its last
// column (1 -> A, 8 -> H, 27 -> AA).
func columnLetter(n int) string {
	out := ""
	for n > 0 {
		n--
		out = string(rune('A'+n%26)) + out
		n /= 26
	}
	return out
}
