// Package store содержит состояние сессии (выбранные окружение, компания, отчеты, версии,
// пагинацию и строку поиска), чистые функции переходов и производные представления.
package store

import (
	"slices"

	"github.com/maynagashev/reportkeeper/models"
)

// DefaultPageSize - размер страницы по умолчанию для списков отчетов и версий.
const DefaultPageSize = 10

// Pagination - окно над отфильтрованным списком. Skip >= 0, Take > 0.
type Pagination struct {
	Skip int
	Take int
}

// DefaultPagination возвращает первую страницу размера DefaultPageSize.
func DefaultPagination() Pagination {
	return Pagination{Skip: 0, Take: DefaultPageSize}
}

// normalized приводит окно к допустимым значениям.
func (p Pagination) normalized() Pagination {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Take <= 0 {
		p.Take = DefaultPageSize
	}
	return p
}

// Reset возвращает окно на первую страницу, сохраняя размер.
func (p Pagination) Reset() Pagination {
	p = p.normalized()
	p.Skip = 0
	return p
}

// State - единый источник истины о текущем контексте и выделении.
type State struct {
	CurrentEnvironment *models.Environment
	// Окружение модального окна копирования, живет только пока окно открыто.
	CopyEnvironment    *models.Environment
	CurrentCompanyID   *int64
	SelectedReportID   *int64
	SelectedReportIDs  []int64
	SelectedVersionIDs []int64
	ReportsPagination  Pagination
	VersionsPagination Pagination
	Query              string
}

// NewState возвращает пустое состояние с пагинацией по умолчанию.
func NewState() State {
	return State{
		ReportsPagination:  DefaultPagination(),
		VersionsPagination: DefaultPagination(),
	}
}

// Clone возвращает копию состояния, не разделяющую срезы и указатели с оригиналом.
func (s State) Clone() State {
	c := s
	c.CurrentEnvironment = cloneEnv(s.CurrentEnvironment)
	c.CopyEnvironment = cloneEnv(s.CopyEnvironment)
	c.CurrentCompanyID = cloneID(s.CurrentCompanyID)
	c.SelectedReportID = cloneID(s.SelectedReportID)
	c.SelectedReportIDs = slices.Clone(s.SelectedReportIDs)
	c.SelectedVersionIDs = slices.Clone(s.SelectedVersionIDs)
	return c
}

// EnvironmentID возвращает id текущего окружения или пустую строку.
func (s State) EnvironmentID() string {
	if s.CurrentEnvironment == nil {
		return ""
	}
	return s.CurrentEnvironment.ID
}

// CopyEnvironmentID возвращает id окружения окна копирования или пустую строку.
func (s State) CopyEnvironmentID() string {
	if s.CopyEnvironment == nil {
		return ""
	}
	return s.CopyEnvironment.ID
}

// HasMultiSelection сообщает, выбрано ли несколько отчетов.
func (s State) HasMultiSelection() bool {
	return len(s.SelectedReportIDs) > 0
}

// IsReportSelected сообщает, входит ли отчет в множественное выделение.
func (s State) IsReportSelected(id int64) bool {
	return slices.Contains(s.SelectedReportIDs, id)
}

// IsVersionSelected сообщает, входит ли версия в выделение.
func (s State) IsVersionSelected(id int64) bool {
	return slices.Contains(s.SelectedVersionIDs, id)
}

// ReportTargets возвращает отчеты, к которым применяется действие:
// множественное выделение, иначе одиночный выбранный отчет.
func (s State) ReportTargets() []int64 {
	if len(s.SelectedReportIDs) > 0 {
		return slices.Clone(s.SelectedReportIDs)
	}
	if s.SelectedReportID != nil {
		return []int64{*s.SelectedReportID}
	}
	return nil
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneEnv(env *models.Environment) *models.Environment {
	if env == nil {
		return nil
	}
	e := *env
	return &e
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// dedupe убирает повторы, сохраняя порядок первого вхождения.
func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
