package handlers

import (
	"net/http"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

// ReportHandler обслуживает компании, отчеты и их копирование.
type ReportHandler struct {
	service services.ReportService
}

// NewReportHandler создает новый экземпляр ReportHandler.
func NewReportHandler(s services.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// ListCompanies обрабатывает GET /companies.
func (h *ReportHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		writeError(w, "ListCompanies", err)
		return
	}
	writeList(w, companies)
}

// ListReports обрабатывает GET /companies/{companyID}/reports?search=.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, "ListReports", err)
		return
	}
	reports, err := h.service.ListReports(r.Context(), companyID, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, "ListReports", err)
		return
	}
	writeList(w, reports)
}

// ReportKPIs обрабатывает GET /companies/{companyID}/report-kpis.
func (h *ReportHandler) ReportKPIs(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, "ReportKPIs", err)
		return
	}
	kpis, err := h.service.ReportKPIs(r.Context(), companyID)
	if err != nil {
		writeError(w, "ReportKPIs", err)
		return
	}
	writeData(w, http.StatusOK, kpis)
}

// DeleteReports обрабатывает DELETE /reports?ids=1,2.
func (h *ReportHandler) DeleteReports(w http.ResponseWriter, r *http.Request) {
	ids, err := idsQuery(r)
	if err == nil {
		err = h.service.DeleteReports(r.Context(), ids)
	}
	if err != nil {
		writeError(w, "DeleteReports", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyReport обрабатывает POST /reports/{reportID}/copy.
func (h *ReportHandler) CopyReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "CopyReport", err)
		return
	}
	var req models.CopyReportRequest
	if !decodeBody(w, r, "CopyReport", &req) {
		return
	}
	report, err := h.service.CopyReport(r.Context(), reportID, req, currentUser(r))
	if err != nil {
		writeError(w, "CopyReport", err)
		return
	}
	writeData(w, http.StatusCreated, report)
}

// CopyReports обрабатывает POST /copy.
func (h *ReportHandler) CopyReports(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCopyRequest
	if !decodeBody(w, r, "CopyReports", &req) {
		return
	}
	reports, err := h.service.CopyReports(r.Context(), req, currentUser(r))
	if err != nil {
		writeError(w, "CopyReports", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewListEnvelope(reports))
}

// CopyReportsWithMetadata обрабатывает POST /copy-with-metadata.
func (h *ReportHandler) CopyReportsWithMetadata(w http.ResponseWriter, r *http.Request) {
	var req models.CopyWithMetadataRequest
	if !decodeBody(w, r, "CopyReportsWithMetadata", &req) {
		return
	}
	reports, err := h.service.CopyReportsWithMetadata(r.Context(), req, currentUser(r))
	if err != nil {
		writeError(w, "CopyReportsWithMetadata", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewListEnvelope(reports))
}
