package override_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/client/internal/override"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/models"
)

func TestLayer_SetGetApply(t *testing.T) {
	l := override.New()
	server := []models.ReportVersion{
		{ID: 1, ReportID: 10, IsPublished: true},
		{ID: 2, ReportID: 10},
	}

	_, ok := l.Get(2)
	assert.False(t, ok)

	l.Set(2, true)
	v, ok := l.Get(2)
	require.True(t, ok)
	assert.True(t, v)

	got := l.Apply(server)
	assert.True(t, got[1].IsPublished)
	assert.False(t, server[1].IsPublished, "данные сервера не изменяются")
	assert.Equal(t, 1, l.Len())
}

func TestLayer_Revision(t *testing.T) {
	l := override.New()
	assert.Equal(t, uint64(0), l.Revision())
	l.Set(1, true)
	l.Set(1, false)
	assert.Equal(t, uint64(2), l.Revision())

	l.Delete(5)
	assert.Equal(t, uint64(2), l.Revision(), "удаление отсутствующей поправки не меняет ревизию")
	l.Delete(1)
	assert.Equal(t, uint64(3), l.Revision())

	l.Clear()
	assert.Equal(t, uint64(3), l.Revision(), "очистка пустого слоя не меняет ревизию")
	l.Set(7, true)
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, uint64(5), l.Revision())
}

func TestLayer_Snapshot(t *testing.T) {
	l := override.New()
	l.Set(3, true)
	snap := l.Snapshot()
	snap[4] = false
	assert.Equal(t, 1, l.Len())
}

// Публикация версии 2 видна сразу, а после повторной загрузки версий
// поправка снимается и показывается значение сервера.
func TestLayer_PublishThenRefetch(t *testing.T) {
	l := override.New()
	s := store.Reduce(store.NewState(), store.SetSelectedReportID{ID: ptr(10)})
	server := []models.ReportVersion{
		{ID: 1, ReportID: 10},
		{ID: 2, ReportID: 10},
	}

	l.Set(2, true)
	shown := store.VersionsForSelectedReport(server, s, l)
	require.Len(t, shown, 2)
	assert.True(t, shown[1].IsPublished)

	// Сервер вернул версию 2 неопубликованной
	refetched := []models.ReportVersion{
		{ID: 1, ReportID: 10},
		{ID: 2, ReportID: 10, IsPublished: false},
	}
	l.Clear()
	shown = store.VersionsForSelectedReport(refetched, s, l)
	assert.False(t, shown[1].IsPublished)
	_, ok := l.Get(2)
	assert.False(t, ok)
}

func ptr(v int64) *int64 { return &v }

func TestLayer_Restore(t *testing.T) {
	l := override.New()
	l.Set(1, true)
	snap := l.Snapshot()
	l.Set(1, false)
	l.Set(2, true)

	l.Restore(snap)
	v, ok := l.Get(1)
	require.True(t, ok)
	assert.True(t, v)
	_, ok = l.Get(2)
	assert.False(t, ok)

	l.Restore(nil)
	assert.Equal(t, 0, l.Len())
	l.Set(3, true)
	assert.Equal(t, 1, l.Len())
}
