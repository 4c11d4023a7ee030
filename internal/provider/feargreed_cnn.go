package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
)

// The graphdata endpoint rejects default Go user agents, so requests carry a
// browser-style one.
const browserUserAgent = "Mozilla/5.0"

type CNNFearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCNNFearGreedProvider(baseURL string, timeout time.Duration, tracer trace.Tracer) *CNNFearGreedProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CNNFearGreedProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
	}
}

// Source is the provenance key recorded on readings built from this provider.
func (p *CNNFearGreedProvider) Source() string {
	return domain.SourceCNN
}

func (p *CNNFearGreedProvider) FetchLatest(ctx context.Context) (*FearGreedPoint, error) {
	_, span := p.tracer.Start(ctx, "feargreed.fetch-cnn")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch fear & greed: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: fear & greed source status %d: %s", domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read fear & greed response: %v", domain.ErrNetwork, err)
	}

	return ExtractFearGreed(body, time.Now())
}
