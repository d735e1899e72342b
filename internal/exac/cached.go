package exac

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RawFetcher fetches raw per-identity JSON records.
type RawFetcher interface {
	FetchRaw(ctx context.Context, keys []string) (map[string][]byte, error)
}

// PayloadCache stores raw per-identity JSON records between runs.
type PayloadCache interface {
	GetPayloads(keys []string) (map[string][]byte, error)
	PutPayloads(payloads map[string][]byte) error
}

// CachedLookup serves lookups from a PayloadCache and fetches only the
// identities it has not seen before.
type CachedLookup struct {
	fetcher RawFetcher
	cache   PayloadCache
	logger  *zap.Logger
}

// NewCachedLookup wraps fetcher with cache.
func NewCachedLookup(fetcher RawFetcher, cache PayloadCache) *CachedLookup {
	return &CachedLookup{
		fetcher: fetcher,
		cache:   cache,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for cache hit/miss messages.
func (l *CachedLookup) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Lookup returns decoded records for keys, consulting the cache first.
func (l *CachedLookup) Lookup(ctx context.Context, keys []string) (map[string]VariantInfo, error) {
	cached, err := l.cache.GetPayloads(keys)
	if err != nil {
		return nil, fmt.Errorf("read lookup cache: %w", err)
	}

	var missing []string
	for _, k := range keys {
		if _, ok := cached[k]; !ok {
			missing = append(missing, k)
		}
	}

	l.logger.Info("lookup cache",
		zap.Int("hits", len(keys)-len(missing)),
		zap.Int("misses", len(missing)))

	raw := make(map[string][]byte, len(keys))
	for k, v := range cached {
		raw[k] = v
	}

	if len(missing) > 0 {
		fetched, err := l.fetcher.FetchRaw(ctx, missing)
		if err != nil {
			return nil, err
		}
		if err := l.cache.PutPayloads(fetched); err != nil {
			return nil, fmt.Errorf("write lookup cache: %w", err)
		}
		for k, v := range fetched {
			raw[k] = v
		}
	}

	infos, err := DecodeAll(raw)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	return infos, nil
}
