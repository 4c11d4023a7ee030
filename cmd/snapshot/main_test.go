package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/config"
	"market-pulse/internal/domain"
	"market-pulse/internal/provider"
	"market-pulse/internal/snapshot"
)

func runMain(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestMainWritesSnapshot(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "data", "market.json")
	restore := stubMainDeps(outPath, false)
	defer restore()

	runMain(t)

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
	var snap domain.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("snapshot not valid json: %v", err)
	}
	if snap.FearGreed == nil || *snap.FearGreed.Value != 40 {
		t.Fatalf("unexpected fear greed reading: %+v", snap.FearGreed)
	}
	if snap.VIX == nil || *snap.VIX.Value != 18.25 {
		t.Fatalf("unexpected vix reading: %+v", snap.VIX)
	}
	if len(snap.Notes) != 0 {
		t.Fatalf("unexpected notes: %v", snap.Notes)
	}
}

func TestMainStillWritesWhenSourcesDown(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "data", "market.json")
	restore := stubMainDeps(outPath, true)
	defer restore()

	runMain(t)

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
	var snap domain.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("snapshot not valid json: %v", err)
	}
	if snap.FearGreed != nil || snap.VIX != nil {
		t.Fatalf("expected empty readings on first failed run: %+v", snap)
	}
	if len(snap.Notes) != 2 {
		t.Fatalf("expected two notes, got %v", snap.Notes)
	}
}

func stubMainDeps(outPath string, sourcesDown bool) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origInitRedis := initRedisFunc
	origNewCNN := newCNNProviderFunc
	origNewAlternative := newAlternativeProviderFunc
	origNewVIX := newVIXProviderFunc
	origNow := nowFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			OutPath:         outPath,
			HTTPTimeoutSecs: 1,
			MaxNotes:        20,
			VIXAlertLevel:   30,
		}
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	initRedisFunc = func(context.Context, string) *redis.Client { return nil }
	newCNNProviderFunc = func(string, time.Duration, trace.Tracer) snapshot.FearGreedReader {
		if sourcesDown {
			return mainFearGreedStub{err: errors.New("cnn down"), src: domain.SourceCNN}
		}
		return mainFearGreedStub{point: &provider.FearGreedPoint{Value: 40, AsOf: "2026-08-25"}, src: domain.SourceCNN}
	}
	newAlternativeProviderFunc = func(string, time.Duration, trace.Tracer) snapshot.FearGreedReader {
		return mainFearGreedStub{err: errors.New("alternative down"), src: domain.SourceAlternative}
	}
	newVIXProviderFunc = func(string, time.Duration, trace.Tracer) snapshot.VIXReader {
		if sourcesDown {
			return mainVIXStub{err: errors.New("cboe down")}
		}
		return mainVIXStub{point: &provider.VIXPoint{Close: 18.25, AsOf: "2026-08-24"}}
	}
	nowFunc = func() time.Time { return time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC) }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		initRedisFunc = origInitRedis
		newCNNProviderFunc = origNewCNN
		newAlternativeProviderFunc = origNewAlternative
		newVIXProviderFunc = origNewVIX
		nowFunc = origNow
	}
}

type mainFearGreedStub struct {
	point *provider.FearGreedPoint
	err   error
	src   string
}

func (s mainFearGreedStub) FetchLatest(ctx context.Context) (*provider.FearGreedPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.point, nil
}

func (s mainFearGreedStub) Source() string { return s.src }

type mainVIXStub struct {
	point *provider.VIXPoint
	err   error
}

func (s mainVIXStub) FetchLatest(ctx context.Context) (*provider.VIXPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.point, nil
}
