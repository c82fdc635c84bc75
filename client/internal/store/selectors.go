package store

import (
	"slices"
	"strings"
	"sync"

	"github.com/maynagashev/reportkeeper/models"
)

// Overrides - источник локальных поправок статуса публикации.
type Overrides interface {
	Apply(versions []models.ReportVersion) []models.ReportVersion
	Revision() uint64
}

// Stats - агрегаты по отфильтрованному списку отчетов.
type Stats struct {
	Total    int
	Active   int
	Inactive int
}

// FilteredReports возвращает отчеты компании companyID, имя которых содержит query без учета регистра.
// Без выбранной компании результат пустой.
func FilteredReports(reports []models.Report, companyID *int64, query string) []models.Report {
	out := []models.Report{}
	if companyID == nil {
		return out
	}
	needle := strings.ToLower(query)
	for _, r := range reports {
		if r.CompanyID != *companyID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Name), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Paginate возвращает items[skip : skip+take] с обрезкой по границам.
func Paginate[T any](items []T, p Pagination) []T {
	p = p.normalized()
	if p.Skip >= len(items) {
		return []T{}
	}
	end := min(p.Skip+p.Take, len(items))
	return items[p.Skip:end]
}

// PaginatedReports возвращает текущую страницу отфильтрованных отчетов.
func PaginatedReports(filtered []models.Report, p Pagination) []models.Report {
	return Paginate(filtered, p)
}

// VersionsForSelectedReport возвращает версии выбранного отчета с примененными поправками.
// Пусто, если отчет не выбран или выбрано несколько отчетов.
func VersionsForSelectedReport(all []models.ReportVersion, s State, ov Overrides) []models.ReportVersion {
	out := []models.ReportVersion{}
	if s.SelectedReportID == nil || s.HasMultiSelection() {
		return out
	}
	for _, v := range all {
		if v.ReportID == *s.SelectedReportID {
			out = append(out, v)
		}
	}
	if ov != nil {
		out = ov.Apply(out)
	}
	return out
}

// ReportStats считает активные и неактивные отчеты.
func ReportStats(filtered []models.Report) Stats {
	st := Stats{Total: len(filtered)}
	for _, r := range filtered {
		if r.Active {
			st.Active++
		} else {
			st.Inactive++
		}
	}
	return st
}

// sameSlice сравнивает срезы по идентичности: те же данные и та же длина.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

func idValue(id *int64) (int64, bool) {
	if id == nil {
		return 0, false
	}
	return *id, true
}

type filteredMemo struct {
	valid     bool
	reports   []models.Report
	companyID int64
	hasID     bool
	query     string
	out       []models.Report
}

type pageMemo struct {
	valid    bool
	filtered []models.Report
	cursor   Pagination
	out      []models.Report
}

type versionsMemo struct {
	valid     bool
	all       []models.ReportVersion
	reportID  int64
	hasID     bool
	multi     bool
	revision  uint64
	overrides Overrides
	out       []models.ReportVersion
}

type statsMemo struct {
	valid    bool
	filtered []models.Report
	out      Stats
}

// Selectors кэширует последний результат каждой проекции.
// При неизменных входах возвращается тот же самый срез, без пересчета.
type Selectors struct {
	mu       sync.Mutex
	filtered filteredMemo
	page     pageMemo
	versions versionsMemo
	stats    statsMemo
	// Счетчик пересчетов, используется в тестах.
	recomputes int
}

// NewSelectors создает пустой набор мемоизированных селекторов.
func NewSelectors() *Selectors {
	return &Selectors{}
}

// FilteredReports - мемоизированная версия FilteredReports.
func (m *Selectors) FilteredReports(reports []models.Report, companyID *int64, query string) []models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, hasID := idValue(companyID)
	f := &m.filtered
	if f.valid && sameSlice(f.reports, reports) && f.hasID == hasID && f.companyID == id && f.query == query {
		return f.out
	}
	m.recomputes++
	*f = filteredMemo{
		valid: true, reports: reports, companyID: id, hasID: hasID, query: query,
		out: FilteredReports(reports, companyID, query),
	}
	return f.out
}

// PaginatedReports - мемоизированная версия PaginatedReports.
func (m *Selectors) PaginatedReports(filtered []models.Report, p Pagination) []models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	pg := &m.page
	if pg.valid && sameSlice(pg.filtered, filtered) && pg.cursor == p {
		return pg.out
	}
	m.recomputes++
	*pg = pageMemo{valid: true, filtered: filtered, cursor: p, out: PaginatedReports(filtered, p)}
	return pg.out
}

// VersionsForSelectedReport - мемоизированная версия VersionsForSelectedReport.
// Изменение поправок отслеживается по их ревизии.
func (m *Selectors) VersionsForSelectedReport(all []models.ReportVersion, s State, ov Overrides) []models.ReportVersion {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, hasID := idValue(s.SelectedReportID)
	var rev uint64
	if ov != nil {
		rev = ov.Revision()
	}
	v := &m.versions
	if v.valid && sameSlice(v.all, all) && v.hasID == hasID && v.reportID == id &&
		v.multi == s.HasMultiSelection() && v.overrides == ov && v.revision == rev {
		return v.out
	}
	m.recomputes++
	*v = versionsMemo{
		valid: true, all: all, reportID: id, hasID: hasID, multi: s.HasMultiSelection(),
		overrides: ov, revision: rev,
		out: VersionsForSelectedReport(all, s, ov),
	}
	return v.out
}

// ReportStats - мемоизированная версия ReportStats.
func (m *Selectors) ReportStats(filtered []models.Report) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &m.stats
	if st.valid && sameSlice(st.filtered, filtered) {
		return st.out
	}
	m.recomputes++
	*st = statsMemo{valid: true, filtered: filtered, out: ReportStats(filtered)}
	return st.out
}

// Recomputes возвращает число фактических пересчетов с момента создания.
func (m *Selectors) Recomputes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recomputes
}

// SelectedReports возвращает отчеты из списка, входящие в выделение, в порядке списка.
func SelectedReports(reports []models.Report, s State) []models.Report {
	targets := s.ReportTargets()
	out := []models.Report{}
	for _, r := range reports {
		if slices.Contains(targets, r.ID) {
			out = append(out, r)
		}
	}
	return out
}
