// README: Place search turns partial text into candidate places. The provider
// is optional; without it, or when it fails, the static gazetteer answers.
package maps

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"adile/internal/observability"
)

const (
	DefaultLimit   = 5
	DefaultTimeout = 3 * time.Second
	// minQueryLen is exclusive: queries must be longer than this.
	minQueryLen = 2
)

type Provider interface {
	Lookup(ctx context.Context, query string, limit int) ([]Place, error)
}

type SearcherConfig struct {
	Limit   int
	Timeout time.Duration
}

type Searcher struct {
	provider Provider
	limit    int
	timeout  time.Duration
	log      logrus.FieldLogger
}

// NewSearcher accepts a nil provider, in which case only the gazetteer is used.
func NewSearcher(provider Provider, cfg SearcherConfig, log logrus.FieldLogger) *Searcher {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Searcher{provider: provider, limit: cfg.Limit, timeout: cfg.Timeout, log: log}
}

// Search returns up to the configured number of candidates. Short queries
// return nothing. The only error is the caller's own context ending.
func (s *Searcher) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) <= minQueryLen {
		observability.PlaceSearches.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	if s.provider != nil {
		places, err := s.lookup(ctx, query)
		if err == nil && len(places) > 0 {
			observability.PlaceSearches.WithLabelValues("provider").Inc()
			return places, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			s.log.WithError(err).WithField("query", query).Warn("place provider failed, using gazetteer")
		}
	}

	observability.PlaceSearches.WithLabelValues("gazetteer").Inc()
	places := Gazetteer(query)
	if len(places) > s.limit {
		places = places[:s.limit]
	}
	return places, nil
}

func (s *Searcher) lookup(ctx context.Context, query string) ([]Place, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	places, err := s.provider.Lookup(ctx, query, s.limit)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	if len(places) > s.limit {
		places = places[:s.limit]
	}
	return places, nil
}
