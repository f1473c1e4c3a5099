// Package storage persists best-genome snapshots so long experiments can
// be resumed and lineages compared across runs.
package storage

import (
	"context"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/neural"
)

// BestRecord is an archived best-genome snapshot.
type BestRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`

	Tick       int64               `json:"tick"`
	Fitness    float32             `json:"fitness"`
	Genome     components.Genome   `json:"genome"`
	Weights    neural.BrainWeights `json:"weights"`
	CapturedAt int64               `json:"captured_at"` // unix seconds
}

// Store defines persistence operations for best-genome archives.
type Store interface {
	Init(ctx context.Context) error
	SaveBest(ctx context.Context, rec BestRecord) error
	LatestBest(ctx context.Context) (BestRecord, bool, error)
	ListBest(ctx context.Context, limit int) ([]BestRecord, error)
	Close() error
}
