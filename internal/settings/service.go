package settings

import (
	"context"
	"strconv"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/cache"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"go.uber.org/zap"
)

const cacheKey = "system_settings:all"
const cacheTTL = 30 * time.Second

// Service is the shared SettingsProvider every narrow per-package interface
// (delivery.SettingsProvider, matching.SettingsProvider, payments.SettingsProvider,
// earnings.SettingsProvider) is satisfied by: one resolver for the
// `system_settings` table, read-through cached since GetFloat runs on every
// estimate, dispatch eligibility check, and payment authorization.
type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService wires a Service to its Store repository. cache may be nil, in
// which case every call reads the repository directly.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) all(ctx context.Context) map[string]string {
	if s.cache == nil {
		values, err := s.repo.GetAll(ctx)
		if err != nil {
			logger.Warn("failed to load system settings", zap.Error(err))
			return nil
		}
		return values
	}

	var cached map[string]string
	err := s.cache.GetOrSet(ctx, cacheKey, cacheTTL, func() (interface{}, error) {
		return s.repo.GetAll(ctx)
	}, &cached)
	if err != nil {
		logger.Warn("failed to load system settings", zap.Error(err))
		return nil
	}
	return cached
}

// GetFloat resolves key to a float64, falling back when the key is absent
// or unparseable. Satisfies every package's SettingsProvider interface.
func (s *Service) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	values := s.all(ctx)
	raw, ok := values[key]
	if !ok {
		if d, ok := Defaults[key]; ok {
			raw = d
		} else {
			return fallback
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// GetString resolves key to its raw string value.
func (s *Service) GetString(ctx context.Context, key, fallback string) string {
	values := s.all(ctx)
	if raw, ok := values[key]; ok {
		return raw
	}
	if d, ok := Defaults[key]; ok {
		return d
	}
	return fallback
}

// All returns the full settings map with defaults filled in for any key
// the table doesn't carry yet, for the operator-facing read view.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(Defaults)+len(stored))
	for k, v := range Defaults {
		out[k] = v
	}
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// Set upserts a setting and invalidates the cached snapshot so the next
// GetFloat/GetString sees it.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			logger.Warn("failed to invalidate system settings cache", zap.Error(err))
		}
	}
	return nil
}

// Seed populates any default keys missing from the table — run once at
// startup so a fresh database has working multipliers without an operator
// having to insert rows by hand first.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	for k, v := range Defaults {
		if _, ok := existing[k]; ok {
			continue
		}
		if err := s.repo.Upsert(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
