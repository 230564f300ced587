package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	dbtypes "github.com/nitesh/cafe_service/internal/db"
	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/metrics"
	"github.com/nitesh/cafe_service/internal/normalize"
	"github.com/nitesh/cafe_service/pkg/models"
)

var (
	// ErrProviderDisabled is returned by provider-backed operations when no
	// API key is configured.
	ErrProviderDisabled = errors.New("PROVIDER_DISABLED")
	// ErrEmptyQuery is returned when a search query is blank.
	ErrEmptyQuery = errors.New("EMPTY_QUERY")
)

const previewCachePrefix = "places:search:"

type CafeStore interface {
	SaveMany(ctx context.Context, cafes []*models.Cafe) (int, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*models.Cafe, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Cafe, error)
	List(ctx context.Context, limit int) ([]*models.Cafe, error)
	All(ctx context.Context) ([]*models.Cafe, error)
	UpdateHours(ctx context.Context, id string, hours dbtypes.Hours) error
	Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Cafe, error)
}

// Searcher runs a provider query and returns normalized cafes.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*models.Cafe, error)
}

// Options tunes provider-backed behavior.
type Options struct {
	ProviderEnabled bool
	SeedQuery       string
	CacheTTL        time.Duration
}

type Service struct {
	repo     CafeStore
	searcher Searcher
	rdb      *redis.Client
	opts     Options
	logger   logger.Logger
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Query string         `json:"query"`
	Found int            `json:"found"`
	Saved int            `json:"saved"`
	Cafes []*models.Cafe `json:"cafes"`
}

// NewService wires the service. rdb may be nil, which disables the preview cache.
func NewService(repo CafeStore, searcher Searcher, rdb *redis.Client, opts Options, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		searcher: searcher,
		rdb:      rdb,
		opts:     opts,
		logger:   log.With(map[string]interface{}{"component": "cafe-service"}),
	}
}

// Import searches the provider for query and persists every new cafe.
func (s *Service) Import(ctx context.Context, query string) (*ImportResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !s.opts.ProviderEnabled {
		return nil, ErrProviderDisabled
	}

	cafes, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	saved, err := s.repo.SaveMany(ctx, cafes)
	if err != nil {
		return nil, fmt.Errorf("save cafes: %w", err)
	}
	metrics.CafesImported.WithLabelValues(models.SourceProvider).Add(float64(saved))

	s.logger.Info("imported cafes", map[string]interface{}{
		"query": query,
		"found": len(cafes),
		"saved": saved,
	})
	return &ImportResult{Query: query, Found: len(cafes), Saved: saved, Cafes: cafes}, nil
}

// Preview runs query against the provider without persisting anything.
// Results are cached in Redis; cache failures only cost a provider call.
func (s *Service) Preview(ctx context.Context, query string) ([]*models.Cafe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !s.opts.ProviderEnabled {
		return nil, ErrProviderDisabled
	}

	key := previewCachePrefix + query
	if cached, ok := s.cachedPreview(ctx, key); ok {
		return cached, nil
	}

	cafes, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if s.rdb != nil && s.opts.CacheTTL > 0 {
		if b, err := json.Marshal(cafes); err == nil {
			if err := s.rdb.Set(ctx, key, b, s.opts.CacheTTL).Err(); err != nil {
				s.logger.Warn("preview cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}
	return cafes, nil
}

func (s *Service) cachedPreview(ctx context.Context, key string) ([]*models.Cafe, bool) {
	if s.rdb == nil {
		return nil, false
	}
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("preview cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	var cafes []*models.Cafe
	if err := json.Unmarshal([]byte(val), &cafes); err != nil {
		s.logger.Warn("preview cache entry unreadable", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return cafes, true
}

// Seed fills an empty directory from the provider, falling back to the
// built-in cafes when the provider fails or finds nothing. A directory that
// already has cafes gets its missing hours backfilled instead.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count cafes: %w", err)
	}
	if n > 0 {
		_, err := s.BackfillHours(ctx)
		return err
	}

	res, err := s.Import(ctx, s.opts.SeedQuery)
	if err == nil && res.Found > 0 {
		return nil
	}

	fields := map[string]interface{}{"query": s.opts.SeedQuery}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.Warn("provider seed failed, using built-in cafes", fields)

	saved, err := s.repo.SaveMany(ctx, FallbackCafes())
	if err != nil {
		return fmt.Errorf("save fallback cafes: %w", err)
	}
	metrics.CafesImported.WithLabelValues(models.SourceFallback).Add(float64(saved))
	s.logger.Info("seeded fallback cafes", map[string]interface{}{"saved": saved})
	return nil
}

// BackfillHours gives every stored cafe the default range for each day it
// has no entry for. Existing entries are kept. It returns the number of
// cafes updated.
func (s *Service) BackfillHours(ctx context.Context) (int, error) {
	cafes, err := s.repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cafes: %w", err)
	}

	updated := 0
	for _, c := range cafes {
		missing := c.Hours.Missing()
		if len(missing) == 0 {
			continue
		}
		hours := make(dbtypes.Hours, dbtypes.DaysPerWeek)
		for day, rng := range c.Hours {
			hours[day] = rng
		}
		for _, day := range missing {
			hours[day] = normalize.DefaultTimeRange
		}
		if err := s.repo.UpdateHours(ctx, c.ID, hours); err != nil {
			return updated, fmt.Errorf("update hours id=%s: %w", c.ID, err)
		}
		c.Hours = hours
		updated++
	}

	s.logger.Info("hours backfill complete", map[string]interface{}{
		"checked": len(cafes),
		"updated": updated,
	})
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Cafe, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []string) ([]*models.Cafe, error) {
	return s.repo.GetByIDs(ctx, ids)
}

func (s *Service) List(ctx context.Context, limit int) ([]*models.Cafe, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Cafe, error) {
	// call DB-side haversine query
	return s.repo.Nearby(ctx, lat, lon, radiusKm, limit)
}
