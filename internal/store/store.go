package store

import (
	"context"

	"github.com/sells-group/izv-data/internal/model"
)

// Manifest records downloaded archives and region builds.
type Manifest interface {
	// Archives
	RecordArchive(ctx context.Context, a model.Archive) error
	GetArchive(ctx context.Context, name string) (*model.Archive, error)
	ListArchives(ctx context.Context) ([]model.Archive, error)

	// Builds
	RecordBuild(ctx context.Context, b model.Build) (*model.Build, error)
	ListBuilds(ctx context.Context, limit int) ([]model.Build, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Nop is a Manifest that records nothing.
type Nop struct{}

func (Nop) RecordArchive(context.Context, model.Archive) error                 { return nil }
func (Nop) GetArchive(context.Context, string) (*model.Archive, error)         { return nil, nil }
func (Nop) ListArchives(context.Context) ([]model.Archive, error)              { return nil, nil }
func (Nop) RecordBuild(_ context.Context, b model.Build) (*model.Build, error) { return &b, nil }
func (Nop) ListBuilds(context.Context, int) ([]model.Build, error)             { return nil, nil }
func (Nop) Migrate(context.Context) error                                      { return nil }
func (Nop) Close() error                                                       { return nil }
