package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cropcareai/backend/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndFetchResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveResult(ctx, store.Result{
		ImagePath:  "static/uploads/abc.jpg",
		Prediction: "Tomato_Early_blight",
		Confidence: 0.87,
	})
	if err != nil {
		t.Fatalf("SaveResult err: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("SaveResult did not assign an id")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("SaveResult did not set a timestamp")
	}

	got, err := s.ResultByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ResultByID err: %v", err)
	}
	if got.Prediction != "Tomato_Early_blight" || got.Confidence != 0.87 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestLatestResultsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.SaveResult(ctx, store.Result{
			ImagePath:  "img",
			Prediction: "Apple_Apple_scab",
			Confidence: 0.5,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveResult err: %v", err)
		}
	}

	results, err := s.LatestResults(ctx, 3)
	if err != nil {
		t.Fatalf("LatestResults err: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].CreatedAt.After(results[i-1].CreatedAt) {
			t.Fatalf("results not newest-first: %v before %v", results[i-1].CreatedAt, results[i].CreatedAt)
		}
	}
}

func TestResultByIDNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ResultByID(context.Background(), 404); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}
