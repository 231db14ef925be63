// Package ratings maintains team attack/defense strength coefficients and
// refreshes them from an external football statistics API.
package ratings

import (
	"strings"
	"sync"

	"github.com/yourusername/goal-edge/internal/models"
)

// Token-overlap similarity above which two team names are considered the
// same club listed under different spellings.
const fuzzyMatchThreshold = 0.75

// Store holds team strength ratings keyed by team name. Lookups fall back
// to fuzzy name matching and finally to the neutral default, so an unknown
// team is never an error. Reads and bulk updates are safe concurrently;
// the scoring path never mutates ratings.
type Store struct {
	mu      sync.RWMutex
	ratings map[string]models.TeamRating
}

// NewStore creates an empty rating store
func NewStore() *Store {
	return &Store{ratings: make(map[string]models.TeamRating)}
}

// Rating returns the rating for a team by name: exact match first, then
// substring or Jaccard token overlap, then the neutral default.
func (s *Store) Rating(teamName string) models.TeamRating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rating, ok := s.ratings[teamName]; ok {
		return rating
	}

	teamLower := strings.ToLower(teamName)
	for name, rating := range s.ratings {
		nameLower := strings.ToLower(name)
		if strings.Contains(nameLower, teamLower) ||
			strings.Contains(teamLower, nameLower) ||
			jaccardSimilarity(teamLower, nameLower) > fuzzyMatchThreshold {
			return rating
		}
	}

	return models.NeutralRating()
}

// UpdateRatings bulk-merges new ratings into the store. In-flight readers
// observe either the old or the new rating for a team, never a partial
// one.
func (s *Store) UpdateRatings(updates map[string]models.TeamRating) {
	if len(updates) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, rating := range updates {
		s.ratings[name] = rating
	}
}

// Len returns the number of rated teams
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ratings)
}

// jaccardSimilarity computes token-set overlap between two names split on
// whitespace.
func jaccardSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
