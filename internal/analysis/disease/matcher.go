// Package disease matches free-form chat text against the disease catalog so
// the chat handler can attach treatment context to a question like "how do I
// treat tomato early blight?".
package disease

import (
	"strings"

	"github.com/cropcareai/backend/internal/model/catalog"
)

const tokenScore = 3

// Match returns the catalog entry whose name best matches the text. A full
// name match always wins; otherwise every token of the name must appear and
// the name must have at least two tokens, which keeps single crop words like
// "tomato" from matching every tomato disease.
func Match(text string, diseases []catalog.Disease) (catalog.Disease, bool) {
	normalized := normalize(text)
	if normalized == "" {
		return catalog.Disease{}, false
	}

	var (
		best      catalog.Disease
		bestScore int
	)

	for _, d := range diseases {
		name := strings.ToLower(d.Name)
		if strings.Contains(normalized, name) {
			return d, true
		}

		hits := 0
		tokens := strings.Fields(name)
		for _, token := range tokens {
			if strings.Contains(normalized, token) {
				hits++
			}
		}
		if hits < 2 || hits < len(tokens) {
			continue
		}

		score := hits * tokenScore
		if score > bestScore {
			best = d
			bestScore = score
		}
	}

	if bestScore == 0 {
		return catalog.Disease{}, false
	}
	return best, true
}

func normalize(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return strings.ReplaceAll(normalized, "_", " ")
}
