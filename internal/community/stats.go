package community

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"frameconomics/internal/cache"
	"frameconomics/internal/store"
)

// Stats holds the community dashboard counters. ActiveUsersToday is carried
// for API compatibility but not computed; it is always 0.
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalStories     int64 `json:"total_stories"`
	TotalComments    int64 `json:"total_comments"`
	ActiveUsersToday int64 `json:"active_users_today"`
}

const (
	statsCacheKey = "community:stats"
	statsCacheTTL = time.Minute
)

// StatsReader produces best-effort dashboard counts. The three counts are
// independent: a failing one degrades to 0 without failing the rest, since
// none of them is critical.
type StatsReader struct {
	store store.RemoteStore
	redis *redis.Client // optional; nil disables caching
}

// NewStatsReader creates a stats reader; client may be nil.
func NewStatsReader(st store.RemoteStore, client *redis.Client) *StatsReader {
	return &StatsReader{store: st, redis: client}
}

// FetchStats returns the counters, served from the redis cache when warm.
func (r *StatsReader) FetchStats(ctx context.Context) Stats {
	var stats Stats
	err := cache.CacheAside(ctx, r.redis, statsCacheKey, &stats, statsCacheTTL, func() error {
		stats = r.countAll(ctx)
		return nil
	})
	if err != nil {
		// Cache trouble never blocks the dashboard.
		stats = r.countAll(ctx)
	}
	return stats
}

func (r *StatsReader) countAll(ctx context.Context) Stats {
	return Stats{
		TotalUsers:    r.count(ctx, store.TableProfiles),
		TotalStories:  r.count(ctx, store.TableStories),
		TotalComments: r.count(ctx, store.TableComments),
	}
}

func (r *StatsReader) count(ctx context.Context, table string) int64 {
	n, err := r.store.Count(ctx, table, nil)
	if err != nil {
		return 0
	}
	return n
}
