package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/domain"
)

// SnapshotRepository persists the market snapshot as a single JSON file. The
// file is the only state carried between runs.
type SnapshotRepository struct {
	path   string
	tracer trace.Tracer
}

func NewSnapshotRepository(path string, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{path: path, tracer: tracer}
}

// Load returns the previous snapshot, or a fresh one when the file does not
// exist yet. A file that no longer parses is reported as an error; the caller
// decides whether to start over.
func (r *SnapshotRepository) Load(ctx context.Context) (*domain.MarketSnapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.load")
	defer span.End()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewMarketSnapshot(), nil
		}
		return nil, err
	}
	var snapshot domain.MarketSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", r.path, err)
	}
	if snapshot.Notes == nil {
		snapshot.Notes = []string{}
	}
	return &snapshot, nil
}

// Save writes the snapshot atomically: temp file in the target directory,
// fsync, rename over the destination. A crashed run never leaves a truncated
// file behind.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.MarketSnapshot) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.save")
	defer span.End()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
