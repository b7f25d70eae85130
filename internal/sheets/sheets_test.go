package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		c := DefaultConfig()
		c.ServiceAccountPath = "/tmp/sa.json"
		c.SpreadsheetID = "sheet-1"
		return c
	}

	tests := []struct {
		wantErr error
		mutate  func(*Config)
		name    string
	}{
		{name: "service account", mutate: func(*Config) {}},
		{name: "oauth", mutate: func(c *Config) {
			c.ServiceAccountPath = ""
			c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh"
		}},
		{name: "no auth", mutate: func(c *Config) { c.ServiceAccountPath = "" }, wantErr: common.ErrMissingConfig},
		{name: "both auth", mutate: func(c *Config) { c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh" }, wantErr: common.ErrInvalidConfig},
		{name: "no spreadsheet", mutate: func(c *Config) { c.SpreadsheetID = "" }, wantErr: common.ErrMissingConfig},
		{name: "bad batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "bad range", mutate: func(c *Config) { c.Range = "A1" }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		in      string
		sheet   string
		row     int
		wantErr bool
	}{
		{in: "Journal!A1", sheet: "Journal", row: 1},
		{in: "仕訳帳!B12", sheet: "仕訳帳", row: 12},
		{in: "Journal!A", sheet: "Journal", row: 1},
		{in: "Journal", wantErr: true},
		{in: "Journal!A0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sheet, row, err := splitRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sheet, sheet)
			assert.Equal(t, tt.row, row)
		})
	}
}

type recordedCall struct {
	method string
	path   string
	rows   int
}

func TestWriter_ExportJournal(t *testing.T) {
	var (
		calls []recordedCall
		mu    sync.Mutex
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, path: r.URL.Path}
		if r.Method == http.MethodPut {
			var body sheets.ValueRange
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			call.rows = len(body.Values)
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		}
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.BatchSize = 2
	w := newWriter(svc, cfg, nil)

	entries := []model.JournalEntry{
		{ID: 3, Date: time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), Summary: "タクシー", Amount: 1200, DebitAccount: "旅費交通費", CreditAccount: "現金"},
		{ID: 2, Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Summary: "セブンイレブン", Amount: 235, DebitAccount: "消耗品費", CreditAccount: "現金"},
		{ID: 1, Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Summary: "東京ガス", Amount: 5400, DebitAccount: "水道光熱費", CreditAccount: "普通預金", Reviewed: true},
	}

	n, err := w.ExportJournal(ctx, "acme", entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.True(t, strings.HasSuffix(calls[0].path, "Journal!A1:J:clear"), calls[0].path)
	assert.True(t, strings.HasSuffix(calls[1].path, "/values/Journal!A1"), calls[1].path)
	assert.Equal(t, 2, calls[1].rows)
	assert.True(t, strings.HasSuffix(calls[2].path, "/values/Journal!A3"), calls[2].path)
	assert.Equal(t, 2, calls[2].rows)
}

func TestJournalValues(t *testing.T) {
	values := journalValues([]model.JournalEntry{{ID: 7, Summary: "x", Confidence: 0.923, Reviewed: true}})
	require.Len(t, values, 2)
	assert.Equal(t, header, values[0])
	assert.Equal(t, int64(7), values[1][0])
	assert.Equal(t, "0.92", values[1][6])
	assert.Equal(t, true, values[1][7])
}
