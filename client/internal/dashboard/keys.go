package dashboard

import (
	"slices"

	"github.com/maynagashev/reportkeeper/client/internal/query"
)

// Конструкторы ключей кэша. Пустое окружение или нулевой id означают, что запрос пропускается.

func companiesKey(scope query.Scope, env string) query.Key {
	return query.Key{Scope: scope, Endpoint: query.EndpointCompanies, Environment: env}
}

func reportsKey(scope query.Scope, env string, companyID int64, search string) query.Key {
	return query.Key{Scope: scope, Endpoint: query.EndpointReports, Environment: env, CompanyID: companyID, Search: search}
}

func kpisKey(scope query.Scope, env string, companyID int64) query.Key {
	return query.Key{Scope: scope, Endpoint: query.EndpointReportKPIs, Environment: env, CompanyID: companyID}
}

func versionsKey(env string, reportID int64) query.Key {
	return query.Key{Scope: query.ScopeGlobal, Endpoint: query.EndpointVersions, Environment: env, ReportID: reportID}
}

func versionKey(env string, reportID, versionID int64) query.Key {
	return query.Key{
		Scope:       query.ScopeGlobal,
		Endpoint:    query.EndpointVersion,
		Environment: env,
		ReportID:    reportID,
		VersionID:   versionID,
	}
}

func linkedPagesKey(env string, reportID int64) query.Key {
	return query.Key{Scope: query.ScopeGlobal, Endpoint: query.EndpointLinkedPages, Environment: env, ReportID: reportID}
}

// companyData совпадает со списками отчетов (при любой строке поиска) и KPI компании
// в окружении env во всех областях.
func companyData(env string, companyID int64) func(query.Key) bool {
	return func(k query.Key) bool {
		if k.Environment != env || k.CompanyID != companyID {
			return false
		}
		return k.Endpoint == query.EndpointReports || k.Endpoint == query.EndpointReportKPIs
	}
}

// reportData совпадает с версиями и связанными страницами перечисленных отчетов.
func reportData(env string, reportIDs []int64) func(query.Key) bool {
	return func(k query.Key) bool {
		if k.Environment != env || !slices.Contains(reportIDs, k.ReportID) {
			return false
		}
		switch k.Endpoint {
		case query.EndpointVersions, query.EndpointVersion, query.EndpointLinkedPages:
			return true
		default:
			return false
		}
	}
}

// versionEntries совпадает с записями отдельных версий.
func versionEntries(env string, versionIDs []int64) func(query.Key) bool {
	return func(k query.Key) bool {
		return k.Environment == env && k.Endpoint == query.EndpointVersion && slices.Contains(versionIDs, k.VersionID)
	}
}

// reportVersions совпадает со списком версий отчета и записями всех его версий.
func reportVersions(env string, reportID int64) func(query.Key) bool {
	return func(k query.Key) bool {
		if k.Environment != env || k.ReportID != reportID {
			return false
		}
		return k.Endpoint == query.EndpointVersions || k.Endpoint == query.EndpointVersion
	}
}
