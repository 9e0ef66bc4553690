package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a result id does not exist.
var ErrNotFound = errors.New("result not found")

// Result is one persisted diagnosis: which image was uploaded, what the
// detector predicted and how confident it was.
type Result struct {
	ID         int64     `json:"id"`
	ImagePath  string    `json:"image_path"`
	Prediction string    `json:"prediction"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Store persists diagnosis results for the history view.
type Store interface {
	SaveResult(ctx context.Context, result Result) (Result, error)
	LatestResults(ctx context.Context, limit int) ([]Result, error)
	ResultByID(ctx context.Context, id int64) (Result, error)
	Close() error
}
