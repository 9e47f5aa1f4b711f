// Package google writes the ledger mirror to a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "masarify/internal/sheets"
)

var _ ports.LedgerMirror = (*Client)(nil)

const maxAttempts = 3

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	backoff       time.Duration
}

// New creates a client authenticated with service-account credentials.
func New(ctx context.Context, spreadsheetID, sheetName, credentialsJSON string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if credentialsJSON == "" {
		return nil, errors.New("missing service account credentials")
	}
	if sheetName == "" {
		sheetName = "Ledger"
	}
	creds, err := oauthgoogle.CredentialsFromJSON(ctx, []byte(credentialsJSON), gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, backoff: time.Second}, nil
}

// TableRange is the A1 range covering the mirrored columns.
func TableRange(sheet string, columns int) string {
	if columns < 1 {
		columns = 1
	}
	if columns > 26 {
		columns = 26
	}
	last := string(rune('A' + columns - 1))
	return fmt.Sprintf("'%s'!A:%s", strings.ReplaceAll(sheet, "'", "''"), last)
}

// ToValues converts string rows into the matrix the API expects.
func ToValues(header []string, rows [][]string) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, toRow(header))
	for _, r := range rows {
		out = append(out, toRow(r))
	}
	return out
}

func toRow(in []string) []interface{} {
	row := make([]interface{}, len(in))
	for i, v := range in {
		row[i] = v
	}
	return row
}

// ReplaceRows clears the mirrored columns and writes header and rows from A1.
func (c *Client) ReplaceRows(ctx context.Context, header []string, rows [][]string) error {
	rng := TableRange(c.sheetName, len(header))

	err := c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	vr := &gsheet.ValueRange{Values: ToValues(header, rows)}
	err = c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Ledger mirrored to sheet", "sheet", c.sheetName, "rows", len(rows))
	return nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		wait := c.backoff << attempt
		slog.WarnContext(ctx, "Sheets call failed, retrying", "error", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// retryable reports rate limiting and server-side failures.
func retryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return false
}
