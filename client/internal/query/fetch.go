package query

import (
	"context"
	"fmt"
	"log/slog"
)

// Result - результат Fetch.
type Result[T any] struct {
	Data   T
	Status Status
	Err    error
	// Fresh - данные получены сетевым запросом в рамках этого вызова.
	Fresh bool
	// Skipped - запрос не выполнялся, так как не задан обязательный компонент ключа.
	Skipped bool
	// Stale - ключ был инвалидирован во время запроса, результат не сохранен.
	Stale bool
}

type outcome struct {
	data  any
	stale bool
}

// Fetch возвращает данные по ключу: из кэша, если они есть и не инвалидированы, иначе выполняет fn.
// Одновременные запросы с одинаковым ключом и поколением выполняются один раз.
// При skip запрос не выполняется и кэш не меняется.
func Fetch[T any](ctx context.Context, c *Cache, key Key, skip bool, fn func(context.Context) (T, error)) (Result[T], error) {
	if skip {
		return Result[T]{Status: StatusIdle, Skipped: true}, nil
	}

	if data, ok := c.fresh(key); ok {
		if v, typed := data.(T); typed {
			return Result[T]{Data: v, Status: StatusSuccess}, nil
		}
	}

	gen := c.register(key)
	flightKey := fmt.Sprintf("%s#%d", key.String(), gen)

	// Запрос общий для всех ожидающих, поэтому не отменяется вместе с контекстом первого из них
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.begin(key)
		slog.Debug("Запрос данных", "key", key.String())
		data, err := fn(flightCtx)
		if err != nil {
			slog.Error("Ошибка запроса данных", "key", key.String(), "error", err)
		}
		stored := c.complete(key, gen, data, err)
		return outcome{data: data, stale: !stored}, err
	})

	select {
	case <-ctx.Done():
		return Result[T]{Status: StatusLoading, Err: ctx.Err()}, ctx.Err()
	case res := <-ch:
		out, _ := res.Val.(outcome)
		v, _ := out.data.(T)
		r := Result[T]{Data: v, Fresh: true, Stale: out.stale}
		if res.Err != nil {
			r.Status = StatusError
			r.Err = res.Err
			return r, res.Err
		}
		r.Status = StatusSuccess
		return r, nil
	}
}

// Get возвращает последние успешные данные ключа, даже если они инвалидированы
// или последнее обновление завершилось ошибкой.
func Get[T any](c *Cache, key Key) (T, bool) {
	var zero T
	data, ok := c.cached(key)
	if !ok {
		return zero, false
	}
	v, typed := data.(T)
	if !typed {
		return zero, false
	}
	return v, true
}
