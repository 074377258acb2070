package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grading-api/internal/models"
)

type failingCacheRepo struct{ err error }

func (f failingCacheRepo) Get(context.Context, string, interface{}) error { return f.err }
func (f failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return f.err
}
func (f failingCacheRepo) DeleteByPattern(context.Context, string) error { return f.err }

func TestCacheServiceRoundTripRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&memoryCacheRepo{}, metrics, 0, nil, true)
	ctx := context.Background()

	var got models.GradingSystem
	hit, err := svc.Get(ctx, "grading:system:gs-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "grading:system:gs-1", &models.GradingSystem{ID: "gs-1", Code: "ects"}, 0))
	hit, err = svc.Get(ctx, "grading:system:gs-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "ects", got.Code)

	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_hits_total", nil))
	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_misses_total", nil))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	assert.Empty(t, repo.store)
	hit, err := svc.Get(ctx, "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Invalidate(ctx, "*"))
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceRepositoryFailureIsAMiss(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewCacheService(failingCacheRepo{err: boom}, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", new(string))
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Set(ctx, "k", "v", 0), boom)
	assert.ErrorIs(t, svc.Invalidate(ctx, "*"), boom)
}
