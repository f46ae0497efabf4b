package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/geo"
	"frenchdriver/internal/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	searchCacheTTL = 24 * time.Hour
	routeCacheTTL  = time.Hour
)

type AddressSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]geo.Suggestion, error)
}

type RouteFinder interface {
	Route(ctx context.Context, from, to models.Coordinates, withGeometry bool) (geo.Route, error)
}

// GeoService proxies address search and routing, cached in Redis when a
// client is configured.
type GeoService struct {
	Searcher AddressSearcher
	Router   RouteFinder
	Cache    *redis.Client
}

func searchKey(query string, limit int) string {
	return fmt.Sprintf("geo:search:%d:%s", limit, strings.ToLower(utils.NormalizeSpace(query)))
}

func routeKey(from, to models.Coordinates, withGeometry bool) string {
	return fmt.Sprintf("geo:route:%.5f,%.5f:%.5f,%.5f:%t",
		from.Latitude, from.Longitude, to.Latitude, to.Longitude, withGeometry)
}

func (s GeoService) cached(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			utils.L().Warn("geo cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (s GeoService) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		utils.L().Warn("geo cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s GeoService) Search(ctx context.Context, query string) ([]geo.Suggestion, error) {
	if len([]rune(strings.TrimSpace(query))) < geo.MinQueryLength {
		return []geo.Suggestion{}, nil
	}
	key := searchKey(query, geo.DefaultLimit)
	var out []geo.Suggestion
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	out, err := s.Searcher.Search(ctx, query, geo.DefaultLimit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, out, searchCacheTTL)
	return out, nil
}

func (s GeoService) Route(ctx context.Context, from, to models.Coordinates, withGeometry bool) (geo.Route, error) {
	key := routeKey(from, to, withGeometry)
	var out geo.Route
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	out, err := s.Router.Route(ctx, from, to, withGeometry)
	if err != nil {
		return geo.Route{}, err
	}
	s.store(ctx, key, out, routeCacheTTL)
	return out, nil
}
