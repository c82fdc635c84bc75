package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/client/internal/query"
)

func reportsKey(companyID int64) query.Key {
	return query.Key{
		Scope:       query.ScopeGlobal,
		Endpoint:    query.EndpointReports,
		Environment: "dev",
		CompanyID:   companyID,
	}
}

func TestFetch_Skipped(t *testing.T) {
	c := query.New()
	called := false
	res, err := query.Fetch(context.Background(), c, reportsKey(0), true, func(context.Context) ([]string, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, called)
	assert.Equal(t, 0, c.Len())
}

func TestFetch_CachesSuccess(t *testing.T) {
	c := query.New()
	var calls int
	fn := func(context.Context) ([]string, error) {
		calls++
		return []string{"Loadlist"}, nil
	}

	first, err := query.Fetch(context.Background(), c, reportsKey(1), false, fn)
	require.NoError(t, err)
	assert.True(t, first.Fresh)
	assert.Equal(t, []string{"Loadlist"}, first.Data)

	second, err := query.Fetch(context.Background(), c, reportsKey(1), false, fn)
	require.NoError(t, err)
	assert.False(t, second.Fresh, "повторный запрос с тем же ключом берется из кэша")
	assert.Equal(t, []string{"Loadlist"}, second.Data)
	assert.Equal(t, 1, calls)

	// Другой ключ - отдельная запись
	_, err = query.Fetch(context.Background(), c, reportsKey(2), false, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	snap := c.Peek(reportsKey(1))
	assert.Equal(t, query.StatusSuccess, snap.Status)
	assert.Equal(t, []string{"Loadlist"}, snap.Data)
}

func TestFetch_ErrorIsNotServedFromCache(t *testing.T) {
	c := query.New()
	boom := errors.New("boom")
	var calls int
	fn := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 42, nil
	}

	res, err := query.Fetch(context.Background(), c, reportsKey(1), false, fn)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, query.StatusError, res.Status)
	assert.Equal(t, query.StatusError, c.Peek(reportsKey(1)).Status)

	res, err = query.Fetch(context.Background(), c, reportsKey(1), false, fn)
	require.NoError(t, err)
	assert.Equal(t, 42, res.Data)
	assert.Equal(t, 2, calls)
}

func TestFetch_DeduplicatesConcurrentRequests(t *testing.T) {
	c := query.New()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "data", nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([]query.Result[string], n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = query.Fetch(context.Background(), c, reportsKey(1), false, fn)
		}(i)
	}

	require.Eventually(t, func() bool { return c.Peek(reportsKey(1)).Loading() }, time.Second, time.Millisecond)
	// Даем остальным горутинам присоединиться к запросу
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "data", r.Data)
	}
}

func TestFetch_InvalidatedDuringFlightIsDiscarded(t *testing.T) {
	c := query.New()
	key := reportsKey(1)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan query.Result[string])
	go func() {
		res, _ := query.Fetch(context.Background(), c, key, false, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		done <- res
	}()

	<-started
	c.Invalidate(key)
	close(release)
	res := <-done

	assert.True(t, res.Stale)
	_, ok := query.Get[string](c, key)
	assert.False(t, ok, "устаревший ответ не сохраняется")

	// Новый запрос не присоединяется к устаревшему и сохраняет свой результат
	fresh, err := query.Fetch(context.Background(), c, key, false, func(context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.False(t, fresh.Stale)
	got, ok := query.Get[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestInvalidateWhere(t *testing.T) {
	c := query.New()
	ctx := context.Background()
	keys := []query.Key{
		reportsKey(1),
		{Scope: query.ScopeGlobal, Endpoint: query.EndpointReports, Environment: "dev", CompanyID: 1, Search: "load"},
		{Scope: query.ScopeCopy, Endpoint: query.EndpointReports, Environment: "prod", CompanyID: 1},
		reportsKey(2),
	}
	for _, k := range keys {
		_, err := query.Fetch(ctx, c, k, false, func(context.Context) (int, error) { return 1, nil })
		require.NoError(t, err)
	}

	n := c.InvalidateWhere(func(k query.Key) bool {
		return k.Environment == "dev" && k.CompanyID == 1 && k.Endpoint == query.EndpointReports
	})
	assert.Equal(t, 2, n)
	assert.True(t, c.Peek(keys[0]).Invalidated)
	assert.True(t, c.Peek(keys[1]).Invalidated)
	assert.False(t, c.Peek(keys[2]).Invalidated, "окно копирования кэшируется отдельно")
	assert.False(t, c.Peek(keys[3]).Invalidated)
	assert.Equal(t, uint64(1), c.Generation(keys[0]))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := query.Get[int](c, keys[3])
	assert.False(t, ok)
}

func TestInvalidate_KeepsDataUntilRefetch(t *testing.T) {
	c := query.New()
	ctx := context.Background()
	key := reportsKey(1)
	var calls int
	fn := func(context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return []string{"v1"}, nil
		}
		return []string{"v2"}, nil
	}
	_, err := query.Fetch(ctx, c, key, false, fn)
	require.NoError(t, err)

	c.Invalidate(key)
	got, ok := query.Get[[]string](c, key)
	require.True(t, ok, "инвалидированные данные доступны до повторной загрузки")
	assert.Equal(t, []string{"v1"}, got)
	snap := c.Peek(key)
	assert.True(t, snap.Invalidated)
	assert.Equal(t, query.StatusSuccess, snap.Status)

	res, err := query.Fetch(ctx, c, key, false, fn)
	require.NoError(t, err)
	assert.True(t, res.Fresh, "инвалидированная запись перезапрашивается")
	assert.Equal(t, []string{"v2"}, res.Data)
	assert.False(t, c.Peek(key).Invalidated)
	assert.Equal(t, 2, calls)
}

func TestInvalidate_DiscardedFlightKeepsPreviousData(t *testing.T) {
	c := query.New()
	ctx := context.Background()
	key := reportsKey(1)
	_, err := query.Fetch(ctx, c, key, false, func(context.Context) (string, error) { return "v1", nil })
	require.NoError(t, err)
	c.Invalidate(key)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan query.Result[string])
	go func() {
		res, _ := query.Fetch(ctx, c, key, false, func(context.Context) (string, error) {
			close(started)
			<-release
			return "late", nil
		})
		done <- res
	}()
	<-started
	assert.True(t, c.Peek(key).Loading())
	c.Invalidate(key)
	close(release)
	assert.True(t, (<-done).Stale)

	snap := c.Peek(key)
	assert.Equal(t, query.StatusSuccess, snap.Status)
	assert.True(t, snap.Invalidated)
	got, ok := query.Get[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "v1", got)
}

func TestGet_ServesDataAfterFailedRefresh(t *testing.T) {
	c := query.New()
	ctx := context.Background()
	key := reportsKey(1)
	_, err := query.Fetch(ctx, c, key, false, func(context.Context) ([]string, error) {
		return []string{"Loadlist"}, nil
	})
	require.NoError(t, err)

	c.Invalidate(key)
	boom := errors.New("boom")
	_, err = query.Fetch(ctx, c, key, false, func(context.Context) ([]string, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	snap := c.Peek(key)
	assert.Equal(t, query.StatusError, snap.Status)
	got, ok := query.Get[[]string](c, key)
	require.True(t, ok, "ошибка обновления не стирает прежние данные")
	assert.Equal(t, []string{"Loadlist"}, got)
}

func TestFetch_CachesEmptyResult(t *testing.T) {
	c := query.New()
	var calls int
	fn := func(context.Context) ([]string, error) {
		calls++
		return nil, nil
	}
	for j := 0; j < 2; j++ {
		_, err := query.Fetch(context.Background(), c, reportsKey(1), false, fn)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
	_, ok := query.Get[[]string](c, reportsKey(1))
	assert.True(t, ok)
}

func TestFetch_ContextCanceled(t *testing.T) {
	c := query.New()
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	cancel()
	res, err := query.Fetch(ctx, c, reportsKey(1), false, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, query.StatusLoading, res.Status)
}
