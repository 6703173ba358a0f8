package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/getcher123/UD-MVP/internal/model"
)

// GoogleStore implements Store against the Google Sheets API. The listing
// sheet holds one header row followed by data rows in the configured column
// order; the request log lives in a separate worksheet that is created with
// headers on first use.
type GoogleStore struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	logWorksheet  string
	headerRow     int
	columns       []string
	log           *zap.Logger
}

var logHeaders = []any{"request_id", "summary", "duplicates", "processed_at", "meta"}

// GoogleConfig configures the spreadsheet connection.
type GoogleConfig struct {
	SpreadsheetID      string
	Worksheet          string
	LogWorksheet       string
	HeaderRow          int
	ServiceAccountFile string
	Columns            []string
}

// NewGoogleStore builds the Sheets client from a service-account key file
// and makes sure the log worksheet exists.
func NewGoogleStore(ctx context.Context, cfg GoogleConfig, log *zap.Logger) (*GoogleStore, error) {
	key, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	s := &GoogleStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.Worksheet,
		logWorksheet:  cfg.LogWorksheet,
		headerRow:     cfg.HeaderRow,
		columns:       append([]string(nil), cfg.Columns...),
		log:           log,
	}
	if err := s.ensureLogSheet(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// SheetURL is the browser URL of the backing spreadsheet.
func (s *GoogleStore) SheetURL() string {
	return "https://docs.google.com/spreadsheets/d/" + s.spreadsheetID
}

func (s *GoogleStore) Snapshot(ctx context.Context) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", s.worksheet, err)
	}
	return RowsFromValues(resp.Values, s.headerRow, s.columns), nil
}

func (s *GoogleStore) Apply(ctx context.Context, updates []RowUpdate, appends [][]any) (ApplyResult, error) {
	var res ApplyResult

	if len(updates) > 0 {
		data := make([]*sheets.ValueRange, 0, len(updates))
		for _, u := range updates {
			data = append(data, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!A%d", s.worksheet, u.Position),
				Values: [][]any{u.Values},
			})
		}
		req := &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		}
		if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return res, fmt.Errorf("failed to update %d rows: %w", len(updates), err)
		}
		for _, u := range updates {
			res.Updated = append(res.Updated, u.Position)
		}
	}

	if len(appends) > 0 {
		vr := &sheets.ValueRange{Values: appends}
		resp, err := s.svc.Spreadsheets.Values.
			Append(s.spreadsheetID, s.worksheet, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			// Updates above may already be visible; the caller's retry
			// discipline reconciles against the partially applied state.
			return res, fmt.Errorf("failed to append %d rows: %w", len(appends), err)
		}
		first := 0
		if resp.Updates != nil {
			first = FirstRowOfRange(resp.Updates.UpdatedRange)
		}
		for i := range appends {
			if first > 0 {
				res.Appended = append(res.Appended, first+i)
			}
		}
	}
	return res, nil
}

func (s *GoogleStore) AppendLog(ctx context.Context, entry model.RequestLogEntry) error {
	summary, err := json.Marshal(entry.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	dups := entry.Duplicates
	if dups == nil {
		dups = []model.DuplicateEntry{}
	}
	duplicates, err := json.Marshal(dups)
	if err != nil {
		return fmt.Errorf("failed to encode duplicates: %w", err)
	}
	meta := ""
	if entry.Meta != nil {
		encoded, err := json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}
		meta = string(encoded)
	}
	vr := &sheets.ValueRange{Values: [][]any{{
		entry.RequestID, string(summary), string(duplicates), entry.ProcessedAt, meta,
	}}}
	_, err = s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.logWorksheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

func (s *GoogleStore) FindRequestLog(ctx context.Context, requestID string) (*model.RequestLogEntry, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.logWorksheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read request log: %w", err)
	}
	for i, row := range resp.Values {
		if i == 0 || len(row) < 4 {
			continue
		}
		if fmt.Sprint(row[0]) != requestID {
			continue
		}
		entry := model.RequestLogEntry{
			RequestID:   requestID,
			ProcessedAt: fmt.Sprint(row[3]),
		}
		if err := json.Unmarshal([]byte(fmt.Sprint(row[1])), &entry.Summary); err != nil {
			s.log.Warn("malformed summary in request log", zap.String("request_id", requestID), zap.Error(err))
		}
		if err := json.Unmarshal([]byte(fmt.Sprint(row[2])), &entry.Duplicates); err != nil {
			s.log.Warn("malformed duplicates in request log", zap.String("request_id", requestID), zap.Error(err))
		}
		if len(row) > 4 {
			if meta := fmt.Sprint(row[4]); meta != "" {
				if err := json.Unmarshal([]byte(meta), &entry.Meta); err != nil {
					s.log.Warn("malformed meta in request log", zap.String("request_id", requestID), zap.Error(err))
				}
			}
		}
		return &entry, nil
	}
	return nil, nil
}

// ensureLogSheet creates the log worksheet with headers when absent.
func (s *GoogleStore) ensureLogSheet(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to inspect spreadsheet: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.logWorksheet {
			return nil
		}
	}

	s.log.Info("creating request log worksheet", zap.String("worksheet", s.logWorksheet))
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: s.logWorksheet},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create log worksheet: %w", err)
	}
	vr := &sheets.ValueRange{Values: [][]any{logHeaders}}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, s.logWorksheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write log headers: %w", err)
	}
	return nil
}

// RowsFromValues maps raw sheet values below the header row onto column
// names. Fully blank rows are skipped but still occupy their position.
func RowsFromValues(values [][]any, headerRow int, columns []string) []Row {
	var rows []Row
	for idx, raw := range values {
		if idx < headerRow {
			continue
		}
		position := idx + 1
		blank := true
		cols := make(map[string]string, len(columns))
		for i, name := range columns {
			if i >= len(raw) {
				break
			}
			v := strings.TrimSpace(fmt.Sprint(raw[i]))
			cols[name] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, Row{Position: position, Columns: cols})
	}
	return rows
}

// FirstRowOfRange extracts the first 1-based row number from an A1 range
// like "V1!A12:U12". Returns 0 when the range cannot be parsed.
func FirstRowOfRange(a1 string) int {
	if i := strings.Index(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	n := 0
	for _, r := range a1 {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}
