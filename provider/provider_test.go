package provider_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/provider"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/params"
	"github.com/stretchr/testify/require"
)

func TestStaticFileAdapter_ExtractReturnsFixture(t *testing.T) {
	fc := normalize.FeatureCollection{Features: []normalize.Feature{{GeometryKind: normalize.KindPolygon}}}
	adapter := provider.NewStaticFileAdapter("fixture:test", []provider.LayerConfig{{LayerType: boundarytype.Congressional}},
		map[boundarytype.LayerType]normalize.FeatureCollection{boundarytype.Congressional: fc})

	got, meta, err := adapter.Extract(context.Background(), provider.LayerConfig{LayerType: boundarytype.Congressional})
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	require.Equal(t, "fixture:test", meta.EndpointURL)
}

func TestStaticFileAdapter_UnknownLayerErrors(t *testing.T) {
	adapter := provider.NewStaticFileAdapter("fixture:test", nil, nil)
	_, _, err := adapter.Extract(context.Background(), provider.LayerConfig{LayerType: boundarytype.County})
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindInvalidInput))
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := &params.RetryConfig{MaxAttempts: 4, InitialBackoff: time.Millisecond, Multiplier: 1.5, MaxBackoff: 10 * time.Millisecond, JitterFraction: 0}
	attempts := 0
	err := provider.WithRetry(context.Background(), "test-origin", cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return atlaserr.New(atlaserr.KindUpstreamUnavailable, "test", "transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	cfg := &params.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, Multiplier: 1.5, MaxBackoff: 5 * time.Millisecond, JitterFraction: 0}
	attempts := 0
	err := provider.WithRetry(context.Background(), "test-origin", cfg, func(ctx context.Context) error {
		attempts++
		return errors.New("permanent failure")
	})
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindUpstreamUnavailable))
	require.Equal(t, 2, attempts)
}

func TestWithRetry_RespectsCancellation(t *testing.T) {
	cfg := params.DefaultRetryConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := provider.WithRetry(ctx, "test-origin", cfg, func(ctx context.Context) error {
		return errors.New("should not matter")
	})
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindCancelled))
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := provider.NewPool("test-queue", 2)
	var mu sync.Mutex
	var active, maxActive int
	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_ = pool.Do(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	require.LessOrEqual(t, maxActive, 2)
}
