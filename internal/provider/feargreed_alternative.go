package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
)

// AlternativeFearGreedProvider is the fallback index source. The alternative.me
// API has kept a stable shape for years, so it gets a plain typed decode
// instead of the extraction chain.
type AlternativeFearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewAlternativeFearGreedProvider(baseURL string, timeout time.Duration, tracer trace.Tracer) *AlternativeFearGreedProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AlternativeFearGreedProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

func (p *AlternativeFearGreedProvider) Source() string {
	return domain.SourceAlternative
}

func (p *AlternativeFearGreedProvider) FetchLatest(ctx context.Context) (*FearGreedPoint, error) {
	_, span := p.tracer.Start(ctx, "feargreed.fetch-alternative")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/fng/?limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch fear & greed fallback: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: fear & greed fallback status %d: %s", domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data []struct {
			Value     string `json:"value"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode fear & greed fallback response: %v", domain.ErrExtraction, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("%w: fear & greed fallback response has no rows", domain.ErrExtraction)
	}

	row := payload.Data[0]
	value, err := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse fear & greed fallback value: %v", domain.ErrExtraction, err)
	}
	if !inIndexRange(value) {
		return nil, fmt.Errorf("%w: fear & greed fallback value %v out of range", domain.ErrExtraction, value)
	}

	asOf := time.Now().UTC().Format(dateLayout)
	if ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64); err == nil {
		asOf = epochToTime(ts).Format(dateLayout)
	}

	return &FearGreedPoint{Value: value, AsOf: asOf}, nil
}
