package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCNNFearGreedFetchLatest(t *testing.T) {
	p := NewCNNFearGreedProvider("https://example.com/graphdata", 0, trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/graphdata" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.Header.Get("User-Agent") != browserUserAgent {
			t.Fatalf("missing browser user agent, got %q", req.Header.Get("User-Agent"))
		}
		body := `{"fear_and_greed":{"score":59.2,"timestamp":"2026-08-25T12:00:00+00:00"}}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	point, err := p.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Value != 59.2 || point.AsOf != "2026-08-25" {
		t.Fatalf("unexpected point: %+v", point)
	}
}

func TestCNNFearGreedBlockedResponse(t *testing.T) {
	p := NewCNNFearGreedProvider("https://example.com/graphdata", 0, trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(bytes.NewBufferString("<html>blocked</html>")),
			Header:     make(http.Header),
		}, nil
	})}

	_, err := p.FetchLatest(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork for non-200 status, got %v", err)
	}
}

func TestCNNFearGreedTransportError(t *testing.T) {
	p := NewCNNFearGreedProvider("https://example.com/graphdata", 0, trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}

	_, err := p.FetchLatest(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork for transport failure, got %v", err)
	}
}

func TestCNNFearGreedUnusableBody(t *testing.T) {
	p := NewCNNFearGreedProvider("https://example.com/graphdata", 0, trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString("<html>consent wall</html>")),
			Header:     make(http.Header),
		}, nil
	})}

	_, err := p.FetchLatest(context.Background())
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction for unusable body, got %v", err)
	}
}
