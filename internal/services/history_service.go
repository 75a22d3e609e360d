package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	edlib "github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/store"
)

const maxRecentSearches = 10

// Minimum similarity before a recent search is offered as a "did you mean"
// suggestion.
const suggestionThreshold = 0.7

// HistoryService keeps the recent free-text searches and offers
// fuzzy-match suggestions when a search misses. Like the registry it
// hydrates once from the store and writes back on every mutation.
type HistoryService struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zerolog.Logger
	recent []string
}

func NewHistoryService(ctx context.Context, st store.Store, logger *zerolog.Logger) *HistoryService {
	s := &HistoryService{store: st, logger: logger}

	raw, err := st.GetItem(ctx, store.KeyRecentSearches)
	if err == nil {
		if err := json.Unmarshal([]byte(raw), &s.recent); err != nil {
			logger.Warn().Err(err).Msg("Corrupt recent-searches payload, starting empty")
			s.recent = nil
		}
	}
	return s
}

// Record stores a successful search term at the front of the list,
// deduplicated case-insensitively and capped.
func (s *HistoryService) Record(ctx context.Context, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	s.mu.Lock()
	filtered := make([]string, 0, len(s.recent)+1)
	filtered = append(filtered, term)
	for _, existing := range s.recent {
		if !strings.EqualFold(existing, term) {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) > maxRecentSearches {
		filtered = filtered[:maxRecentSearches]
	}
	s.recent = filtered
	payload, err := json.Marshal(s.recent)
	s.mu.Unlock()

	if err != nil {
		return
	}
	if err := s.store.SetItem(ctx, store.KeyRecentSearches, string(payload)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist recent searches")
	}
}

// Recent returns the recorded search terms, most recent first.
func (s *HistoryService) Recent() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := make([]string, len(s.recent))
	copy(recent, s.recent)
	return recent
}

// Suggest returns the recent search most similar to the failed term, if
// any is close enough to be worth offering.
func (s *HistoryService) Suggest(term string) (string, bool) {
	s.mu.RLock()
	recent := make([]string, len(s.recent))
	copy(recent, s.recent)
	s.mu.RUnlock()

	if len(recent) == 0 {
		return "", false
	}

	match, err := edlib.FuzzySearchThreshold(term, recent, suggestionThreshold, edlib.JaroWinkler)
	if err != nil || match == "" {
		return "", false
	}
	return match, true
}
