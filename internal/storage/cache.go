// cache.go - In-memory cache for dashboard statistics

package storage

import (
	"context"
	"sync"
	"time"
)

// DashboardStats holds the collection counts shown on the dashboard
type DashboardStats struct {
	TotalGLTransactions int64     `json:"totalGlTransactions"`
	TotalTaxInvoices    int64     `json:"totalTaxInvoices"`
	TotalInvoices       int64     `json:"totalInvoices"`
	TotalVendorRefs     int64     `json:"totalVendorReferences"`
	LoadedAt            time.Time `json:"-"`
}

var dashboardCache *DashboardStats
var cacheMutex sync.RWMutex

const CACHE_TTL = 5 * time.Minute // Cache expires after 5 minutes

// GetOrLoadDashboardStats retrieves dashboard stats from cache or counts fresh
func GetOrLoadDashboardStats(ctx context.Context, store *Store) (*DashboardStats, error) {
	cacheMutex.RLock()
	cached := dashboardCache
	cacheMutex.RUnlock()

	if cached != nil && time.Since(cached.LoadedAt) < CACHE_TTL {
		return cached, nil
	}

	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	// Double-check after acquiring write lock
	if dashboardCache != nil && time.Since(dashboardCache.LoadedAt) < CACHE_TTL {
		return dashboardCache, nil
	}

	glCount, err := store.CountCollection(ctx, CollectionGLTransactions)
	if err != nil {
		return nil, err
	}
	taxCount, err := store.CountCollection(ctx, CollectionTaxInvoices)
	if err != nil {
		return nil, err
	}
	invCount, err := store.CountCollection(ctx, CollectionInvoices)
	if err != nil {
		return nil, err
	}
	refCount, err := store.CountCollection(ctx, CollectionVendorTaxRefs)
	if err != nil {
		return nil, err
	}

	dashboardCache = &DashboardStats{
		TotalGLTransactions: glCount,
		TotalTaxInvoices:    taxCount,
		TotalInvoices:       invCount,
		TotalVendorRefs:     refCount,
		LoadedAt:            time.Now(),
	}
	return dashboardCache, nil
}

// InvalidateDashboardCache forces the next read to count fresh
func InvalidateDashboardCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	dashboardCache = nil
}
