package core

import "context"

// Context keys for report options
type contextKey string

const forceRefreshKey contextKey = "forceRefresh"

// WithForceRefresh makes report generation skip the analysis cache.
func WithForceRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, forceRefreshKey, true)
}

// shouldForceRefresh returns whether the cache must be bypassed
func shouldForceRefresh(ctx context.Context) bool {
	val := ctx.Value(forceRefreshKey)
	if val == nil {
		return false // default: use the cache
	}
	refresh, ok := val.(bool)
	return ok && refresh
}
