package store

import (
	"slices"

	"github.com/maynagashev/reportkeeper/models"
)

// Action - действие, переводящее состояние в новое через Reduce.
type Action interface {
	actionName() string
}

// SetCurrentEnvironment выбирает окружение (nil - ни одного).
type SetCurrentEnvironment struct{ Env *models.Environment }

// SetCopyEnvironment выбирает окружение в окне копирования (nil - окно закрыто).
type SetCopyEnvironment struct{ Env *models.Environment }

// SetCurrentCompany выбирает компанию (nil - ни одной).
type SetCurrentCompany struct{ ID *int64 }

// SetQuery задает строку поиска по имени отчета.
type SetQuery struct{ Text string }

// SetSelectedReportID выбирает один отчет.
type SetSelectedReportID struct{ ID *int64 }

// SetSelectedReportIDs задает множественное выделение отчетов.
type SetSelectedReportIDs struct{ IDs []int64 }

// ToggleReportSelection добавляет отчет в множественное выделение или убирает из него.
type ToggleReportSelection struct{ ID int64 }

// SetSelectedVersionIDs задает выделение версий.
type SetSelectedVersionIDs struct{ IDs []int64 }

// ToggleVersionSelection добавляет версию в выделение или убирает из него.
type ToggleVersionSelection struct{ ID int64 }

// SetReportsPagination задает окно над списком отчетов.
type SetReportsPagination struct{ Pagination Pagination }

// SetVersionsPagination задает окно над списком версий.
type SetVersionsPagination struct{ Pagination Pagination }

// NextReportsPage сдвигает окно отчетов вперед, если Total позволяет.
type NextReportsPage struct{ Total int }

// PrevReportsPage сдвигает окно отчетов назад.
type PrevReportsPage struct{}

// ClearSelection сбрасывает выделение отчетов и версий.
type ClearSelection struct{}

func (SetCurrentEnvironment) actionName() string  { return "SetCurrentEnvironment" }
func (SetCopyEnvironment) actionName() string     { return "SetCopyEnvironment" }
func (SetCurrentCompany) actionName() string      { return "SetCurrentCompany" }
func (SetQuery) actionName() string               { return "SetQuery" }
func (SetSelectedReportID) actionName() string    { return "SetSelectedReportID" }
func (SetSelectedReportIDs) actionName() string   { return "SetSelectedReportIDs" }
func (ToggleReportSelection) actionName() string  { return "ToggleReportSelection" }
func (SetSelectedVersionIDs) actionName() string  { return "SetSelectedVersionIDs" }
func (ToggleVersionSelection) actionName() string { return "ToggleVersionSelection" }
func (SetReportsPagination) actionName() string   { return "SetReportsPagination" }
func (SetVersionsPagination) actionName() string  { return "SetVersionsPagination" }
func (NextReportsPage) actionName() string        { return "NextReportsPage" }
func (PrevReportsPage) actionName() string        { return "PrevReportsPage" }
func (ClearSelection) actionName() string         { return "ClearSelection" }

// Reduce - чистая функция перехода. Исходное состояние не изменяется.
// Ни один переход не оставляет одновременно выбранный одиночный отчет и непустое множественное выделение.
//
//nolint:gocyclo // Плоский switch по типам действий
func Reduce(s State, a Action) State {
	next := s.Clone()
	next.ReportsPagination = next.ReportsPagination.normalized()
	next.VersionsPagination = next.VersionsPagination.normalized()

	switch act := a.(type) {
	case SetCurrentEnvironment:
		next.CurrentEnvironment = cloneEnv(act.Env)
		// ID компаний имеют смысл только внутри окружения
		next.CurrentCompanyID = nil
		next = clearReportSelection(next)
		next.ReportsPagination = next.ReportsPagination.Reset()

	case SetCopyEnvironment:
		next.CopyEnvironment = cloneEnv(act.Env)

	case SetCurrentCompany:
		next.CurrentCompanyID = cloneID(act.ID)
		next = clearReportSelection(next)
		next.ReportsPagination = next.ReportsPagination.Reset()

	case SetQuery:
		next.Query = act.Text
		next.ReportsPagination = next.ReportsPagination.Reset()

	case SetSelectedReportID:
		if !sameID(next.SelectedReportID, act.ID) {
			next.SelectedVersionIDs = nil
		}
		next.SelectedReportID = cloneID(act.ID)
		if act.ID != nil {
			next.SelectedReportIDs = nil
		}
		next.VersionsPagination = next.VersionsPagination.Reset()

	case SetSelectedReportIDs:
		next.SelectedReportIDs = dedupe(act.IDs)
		if len(next.SelectedReportIDs) > 0 {
			next.SelectedReportID = nil
			next.SelectedVersionIDs = nil
		}

	case ToggleReportSelection:
		if idx := slices.Index(next.SelectedReportIDs, act.ID); idx >= 0 {
			next.SelectedReportIDs = slices.Delete(next.SelectedReportIDs, idx, idx+1)
		} else {
			next.SelectedReportIDs = append(next.SelectedReportIDs, act.ID)
		}
		if len(next.SelectedReportIDs) == 0 {
			next.SelectedReportIDs = nil
		} else {
			next.SelectedReportID = nil
			next.SelectedVersionIDs = nil
		}

	case SetSelectedVersionIDs:
		next.SelectedVersionIDs = dedupe(act.IDs)

	case ToggleVersionSelection:
		if idx := slices.Index(next.SelectedVersionIDs, act.ID); idx >= 0 {
			next.SelectedVersionIDs = slices.Delete(next.SelectedVersionIDs, idx, idx+1)
		} else {
			next.SelectedVersionIDs = append(next.SelectedVersionIDs, act.ID)
		}
		if len(next.SelectedVersionIDs) == 0 {
			next.SelectedVersionIDs = nil
		}

	case SetReportsPagination:
		next.ReportsPagination = act.Pagination.normalized()

	case SetVersionsPagination:
		next.VersionsPagination = act.Pagination.normalized()

	case NextReportsPage:
		p := next.ReportsPagination
		if p.Skip+p.Take < act.Total {
			p.Skip += p.Take
		}
		next.ReportsPagination = p

	case PrevReportsPage:
		p := next.ReportsPagination
		p.Skip -= p.Take
		next.ReportsPagination = p.normalized()

	case ClearSelection:
		next = clearReportSelection(next)
	}

	return next
}

// clearReportSelection сбрасывает одиночный и множественный выбор отчетов и выбор версий.
func clearReportSelection(s State) State {
	s.SelectedReportID = nil
	s.SelectedReportIDs = nil
	s.SelectedVersionIDs = nil
	s.VersionsPagination = s.VersionsPagination.Reset()
	return s
}
