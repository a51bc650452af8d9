// Package search implements the recipient search box: debounced, with only
// the most recently issued query allowed to update the visible results.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MuhammadMagdy7/money-transfer/internal/debounce"
	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// DefaultQuiet is the quiet period a query must survive before it is sent.
const DefaultQuiet = 300 * time.Millisecond

// ErrSuperseded is returned for queries replaced by a newer one.
var ErrSuperseded = debounce.ErrSuperseded

// Backend performs the actual account search.
type Backend interface {
	SearchAccounts(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// Searcher holds the results of the latest search.
type Searcher struct {
	backend   Backend
	debouncer *debounce.Debouncer

	mu      sync.RWMutex
	results []domain.SearchResult
}

// New creates a searcher. A non-positive quiet period uses DefaultQuiet.
func New(backend Backend, quiet time.Duration) *Searcher {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Searcher{
		backend:   backend,
		debouncer: debounce.New(quiet),
	}
}

// Search debounces query and, if it is still the latest once the quiet period
// passes, asks the backend. Blank queries clear the results without a call.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		s.Reset()
		return nil, nil
	}

	call, err := s.debouncer.Wait(ctx)
	if err != nil {
		if errors.Is(err, debounce.ErrSuperseded) {
			telemetry.SupersededTotal.WithLabelValues("search").Inc()
		}
		return nil, err
	}
	defer call.Done()

	results, err := s.backend.SearchAccounts(call.Ctx, query)

	var applied []domain.SearchResult
	ok := call.Apply(func() {
		if err != nil {
			s.setResults(nil)
			return
		}
		s.setResults(results)
		applied = s.Results()
	})
	if !ok {
		telemetry.SupersededTotal.WithLabelValues("search").Inc()
		return nil, ErrSuperseded
	}
	if err != nil {
		slog.ErrorContext(ctx, "Error searching accounts", "query", query, "error", err)
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	return applied, nil
}

// Reset supersedes pending searches and clears the results.
func (s *Searcher) Reset() {
	s.debouncer.Cancel()
	s.setResults(nil)
}

// Results returns a copy of the latest applied results.
func (s *Searcher) Results() []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SearchResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Searcher) setResults(results []domain.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
}
