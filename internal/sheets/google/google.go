// Package google writes month summary rows to a Google spreadsheet.
// Auth comes from the app config: a service account, or an OAuth
// client plus the token minted by the oauth-init helper.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.RowWriter = (*Client)(nil)

// Config carries the target spreadsheet and one of the supported
// credential sources. Inline JSON wins over a file path.
type Config struct {
	SpreadsheetID string
	SheetName     string

	ServiceAccountJSON string
	ServiceAccountFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// newSheetsService builds the API client. A service account is
// preferred; otherwise an OAuth client plus refresh token.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saJSON, err := readCredential(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("service account credentials: %w", err)
	}
	if saJSON != nil {
		slog.InfoContext(ctx, "Using service account credentials")
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	clientJSON, err := readCredential(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client credentials: %w", err)
	}
	tokenJSON, err := readCredential(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing credentials: provide a service account or an OAuth client and token")
	}

	conf, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}

	slog.InfoContext(ctx, "Using OAuth credentials")
	return gsheet.NewService(ctx, goption.WithHTTPClient(conf.Client(ctx, &token)))
}

// readCredential prefers inline JSON, then a file path. Both empty
// means this source is not configured.
func readCredential(inline, file string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(file) != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	}
	return nil, nil
}

// Append writes the row after the last used one and returns its range.
func (c *Client) Append(ctx context.Context, row sheets.MonthSummaryRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Row count of column A decides where the next row lands.
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:J%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Appended month summary row",
		"sheet", c.sheetName,
		"ref", dataRange)

	return dataRange, nil
}

// rowValues lays the summary out as columns A through J: month key,
// total, income, then amount and percent per bucket, obligations.
// Unknown income leaves income and every percent cell blank.
func rowValues(row sheets.MonthSummaryRow) []any {
	values := []any{
		string(core.MonthKeyFor(row.Year, row.Month)),
		row.Total.Units(),
	}
	if row.IncomeKnown {
		values = append(values,
			row.Income.Units(),
			row.Needs.Units(), percentCell(row.NeedsPercent),
			row.Wants.Units(), percentCell(row.WantsPercent),
			row.Invest.Units(), percentCell(row.InvestPercent),
		)
	} else {
		values = append(values,
			"",
			row.Needs.Units(), "",
			row.Wants.Units(), "",
			row.Invest.Units(), "",
		)
	}
	return append(values, row.Obligations.Units())
}

func percentCell(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
