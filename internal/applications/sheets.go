package applications

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink appends application rows to a Google Sheet through a
// service account.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
}

// NewSheetsSink builds a sink for the given spreadsheet using
// service-account JSON credentials.
func NewSheetsSink(ctx context.Context, credsFile, spreadsheetID, writeRange string) (*SheetsSink, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if strings.TrimSpace(writeRange) == "" {
		writeRange = "Sheet1!A:I"
	}

	data, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
	}, nil
}

// Append adds one row for the record. The column order matches the
// sheet header: name, email, phone, cvUrl, personalInfo, education,
// qualifications, projects, timestamp.
func (s *SheetsSink) Append(ctx context.Context, record ApplicationRecord) error {
	row := []interface{}{
		record.Name,
		record.Email,
		record.Phone,
		record.CVURL,
		record.PersonalInfo,
		record.Education,
		record.Qualifications,
		record.Projects,
		record.SubmittedAt.UTC().Format(time.RFC3339),
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append spreadsheet=%s: %w", s.spreadsheetID, err)
	}
	return nil
}

var _ RecordSink = (*SheetsSink)(nil)
