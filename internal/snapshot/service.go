package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
	"market-pulse/internal/provider"
)

const snapshotCacheKey = "market:snapshot"

type FearGreedReader interface {
	FetchLatest(ctx context.Context) (*provider.FearGreedPoint, error)
	Source() string
}

type VIXReader interface {
	FetchLatest(ctx context.Context) (*provider.VIXPoint, error)
}

type SnapshotStore interface {
	Load(ctx context.Context) (*domain.MarketSnapshot, error)
	Save(ctx context.Context, snapshot *domain.MarketSnapshot) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

type Config struct {
	MaxNotes      int
	CacheTTL      time.Duration
	VIXAlertLevel float64
}

// Service runs one load-fetch-merge-write cycle. The two indicators are
// independent failure domains: either can fail without touching the other's
// last known reading.
type Service struct {
	tracer   trace.Tracer
	primary  FearGreedReader
	fallback FearGreedReader
	vix      VIXReader
	store    SnapshotStore
	redis    RedisClient
	notifier Notifier

	cfg Config
}

func NewService(
	tracer trace.Tracer,
	primary FearGreedReader,
	fallback FearGreedReader,
	vix VIXReader,
	store SnapshotStore,
	redisClient RedisClient,
	notifier Notifier,
	cfg Config,
) *Service {
	if cfg.MaxNotes <= 0 {
		cfg.MaxNotes = 20
	}
	if cfg.VIXAlertLevel <= 0 {
		cfg.VIXAlertLevel = 30
	}

	return &Service{
		tracer:   tracer,
		primary:  primary,
		fallback: fallback,
		vix:      vix,
		store:    store,
		redis:    redisClient,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *Service) Run(ctx context.Context, now time.Time) (domain.SnapshotRunResult, error) {
	_, span := s.tracer.Start(ctx, "snapshot.run")
	defer span.End()

	if s.store == nil {
		return domain.SnapshotRunResult{}, fmt.Errorf("snapshot service store is not initialized")
	}

	now = now.UTC()
	result := domain.SnapshotRunResult{}

	snapshot, err := s.store.Load(ctx)
	if err != nil {
		snapshot = domain.NewMarketSnapshot()
		s.note(snapshot, &result, now, "state: "+err.Error())
	}

	if s.primary != nil || s.fallback != nil {
		if point, source, err := s.fetchFearGreed(ctx); err != nil {
			s.note(snapshot, &result, now, "fear-greed: "+err.Error())
		} else {
			snapshot.FearGreed = domain.NewFearGreedReading(point.Value, point.AsOf, source)
			result.FearGreedRefreshed = true
		}
	}

	if s.vix != nil {
		if point, err := s.vix.FetchLatest(ctx); err != nil {
			s.note(snapshot, &result, now, "vix: "+err.Error())
		} else {
			snapshot.VIX = domain.NewVIXReading(point.Close, point.AsOf)
			result.VIXRefreshed = true
		}
	}

	snapshot.UpdatedAt = now

	if err := s.store.Save(ctx, snapshot); err != nil {
		return result, fmt.Errorf("save snapshot: %w", err)
	}

	s.mirror(ctx, snapshot)
	s.alert(ctx, snapshot, result)

	return result, nil
}

// fetchFearGreed tries the primary source and falls back once. When both
// fail the two causes are folded into a single error so the run records one
// note for the indicator.
func (s *Service) fetchFearGreed(ctx context.Context) (*provider.FearGreedPoint, string, error) {
	var primaryErr error
	if s.primary != nil {
		point, err := s.primary.FetchLatest(ctx)
		if err == nil {
			return point, s.primary.Source(), nil
		}
		primaryErr = err
		log.Printf("fear & greed primary source failed: %v", err)
	}

	if s.fallback == nil {
		return nil, "", primaryErr
	}
	point, err := s.fallback.FetchLatest(ctx)
	if err != nil {
		if primaryErr != nil {
			return nil, "", fmt.Errorf("%v; fallback: %v", primaryErr, err)
		}
		return nil, "", err
	}
	return point, s.fallback.Source(), nil
}

func (s *Service) note(snapshot *domain.MarketSnapshot, result *domain.SnapshotRunResult, now time.Time, msg string) {
	snapshot.AppendNote(now.Format(time.RFC3339)+" "+msg, s.cfg.MaxNotes)
	result.Errors = append(result.Errors, msg)
	log.Printf("note: %s", msg)
}

func (s *Service) mirror(ctx context.Context, snapshot *domain.MarketSnapshot) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("redis mirror marshal error: %v", err)
		return
	}
	if err := s.redis.Set(ctx, snapshotCacheKey, data, s.cfg.CacheTTL).Err(); err != nil {
		log.Printf("redis mirror write error: %v", err)
	}
}

// alert fires only on readings refreshed this run; a retained value never
// re-alerts.
func (s *Service) alert(ctx context.Context, snapshot *domain.MarketSnapshot, result domain.SnapshotRunResult) {
	if s.notifier == nil {
		return
	}

	var parts []string
	if fg := snapshot.FearGreed; result.FearGreedRefreshed && fg != nil && fg.Label != nil {
		if *fg.Label == domain.LabelExtremeFear || *fg.Label == domain.LabelExtremeGreed {
			parts = append(parts, fmt.Sprintf("Fear & Greed at %.1f (%s)", *fg.Value, *fg.Label))
		}
	}
	if vx := snapshot.VIX; result.VIXRefreshed && vx != nil && vx.Value != nil && *vx.Value >= s.cfg.VIXAlertLevel {
		parts = append(parts, fmt.Sprintf("VIX at %.2f, above alert level %.2f", *vx.Value, s.cfg.VIXAlertLevel))
	}
	if len(parts) == 0 {
		return
	}

	if err := s.notifier.Send(ctx, "Market alert", strings.Join(parts, "; ")); err != nil {
		log.Printf("alert send error: %v", err)
	}
}
