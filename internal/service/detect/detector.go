// Package detect classifies leaf photos into the disease catalog using
// color-indicator and edge-texture heuristics that stand in for the trained
// model.
package detect

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cropcareai/backend/internal/model/catalog"
)

// Service runs the heuristic classifier. The random source only drives
// tie-breaking between equally plausible classes and the confidence jitter.
type Service struct {
	mu      sync.Mutex
	rng     *rand.Rand
	classes []catalog.Disease
	healthy []catalog.Disease
}

// NewService builds a detector over the default catalog.
func NewService() *Service {
	return newService(rand.New(rand.NewSource(time.Now().UnixNano())), catalog.Seed())
}

func newService(rng *rand.Rand, classes []catalog.Disease) *Service {
	s := &Service{rng: rng, classes: classes}
	for _, c := range classes {
		if c.Healthy {
			s.healthy = append(s.healthy, c)
		}
	}
	return s
}

// Detect classifies the image at imagePath and returns the predicted class
// label with a confidence score in [0,1]. Unreadable or non-image files are
// reported as errors so the upload endpoint can answer with its error
// envelope.
func (s *Service) Detect(ctx context.Context, imagePath string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return "", 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", 0, fmt.Errorf("decode image: %w", err)
	}

	feats := extractFeatures(img)

	s.mu.Lock()
	defer s.mu.Unlock()

	prediction := s.classify(feats)
	confidence := s.confidenceFor(prediction)
	return prediction, confidence, nil
}

// classify applies the feature thresholds in priority order. Callers hold the
// rng lock.
func (s *Service) classify(f features) string {
	// Brown spots with strong edge variation: scab or black rot.
	if f.color[0] > 0.15 && f.texture[1] > 0.2 {
		if s.rng.Float64() > 0.5 {
			return "Apple_Black_rot"
		}
		return "Apple_Apple_scab"
	}

	// Dominant yellow spotting: leaf spot diseases.
	if f.color[1] > 0.2 {
		return "Tomato_Early_blight"
	}

	// White powdery coating.
	if f.color[3] > 0.1 {
		return "Cherry_Powdery_mildew"
	}

	// Dark lesions.
	if f.color[2] > 0.12 {
		return "Tomato_Late_blight"
	}

	// Few disease indicators overall: call it healthy.
	indicatorMean := (f.color[0] + f.color[1] + f.color[2] + f.color[3] + f.color[4]) / 5
	if indicatorMean < 0.1 && f.color[5] > 0.4 && len(s.healthy) > 0 {
		return s.healthy[s.rng.Intn(len(s.healthy))].ID
	}

	// No clear pattern: pick an arbitrary class, as the original demo did.
	return s.classes[s.rng.Intn(len(s.classes))].ID
}

// confidenceFor jitters the score inside the band the demo model produced:
// healthy calls score higher than disease calls.
func (s *Service) confidenceFor(prediction string) float64 {
	if strings.Contains(prediction, "Healthy") {
		return 0.7 + s.rng.Float64()*0.25
	}
	return 0.6 + s.rng.Float64()*0.3
}
