package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
)

type CBOEVIXProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCBOEVIXProvider(baseURL string, timeout time.Duration, tracer trace.Tracer) *CBOEVIXProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CBOEVIXProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

func (p *CBOEVIXProvider) FetchLatest(ctx context.Context) (*VIXPoint, error) {
	_, span := p.tracer.Start(ctx, "vix.fetch-history")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch vix history: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: vix source status %d: %s", domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read vix response: %v", domain.ErrNetwork, err)
	}

	return ExtractVIX(body)
}

// ExtractVIX returns the close of the last row that parses. The full history
// file is large and occasionally carries a trailing partial row, so the scan
// runs backwards from the end.
func ExtractVIX(raw []byte) (*VIXPoint, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse vix csv: %v", domain.ErrExtraction, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty vix csv", domain.ErrExtraction)
	}

	dateIdx, closeIdx := -1, -1
	for i, col := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "close":
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("%w: vix csv header missing date/close: %q", domain.ErrExtraction, strings.Join(rows[0], ","))
	}

	for i := len(rows) - 1; i >= 1; i-- {
		row := rows[i]
		if len(row) <= dateIdx || len(row) <= closeIdx {
			continue
		}
		close, err := strconv.ParseFloat(strings.TrimSpace(row[closeIdx]), 64)
		if err != nil {
			continue
		}
		return &VIXPoint{Close: close, AsOf: normalizeCSVDate(row[dateIdx])}, nil
	}
	return nil, fmt.Errorf("%w: vix csv has no parseable close", domain.ErrExtraction)
}

// normalizeCSVDate maps the layouts CBOE has used to YYYY-MM-DD, passing
// anything else through untouched.
func normalizeCSVDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "01/02/2006", "1/2/2006"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format(dateLayout)
		}
	}
	return s
}
