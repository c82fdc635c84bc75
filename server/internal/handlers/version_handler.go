package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/services"
	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

// VersionHandler обслуживает версии отчетов и их макеты.
type VersionHandler struct {
	service services.VersionService
}

// NewVersionHandler создает новый экземпляр VersionHandler.
func NewVersionHandler(s services.VersionService) *VersionHandler {
	return &VersionHandler{service: s}
}

// ListVersions обрабатывает GET /{reportID}/versions.
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "ListVersions", err)
		return
	}
	versions, err := h.service.ListVersions(r.Context(), reportID)
	if err != nil {
		writeError(w, "ListVersions", err)
		return
	}
	writeList(w, versions)
}

// GetVersion обрабатывает GET /versions/{versionID}.
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	versionID, err := idParam(r, "versionID")
	if err != nil {
		writeError(w, "GetVersion", err)
		return
	}
	version, err := h.service.GetVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, "GetVersion", err)
		return
	}
	writeData(w, http.StatusOK, version)
}

// Publish обрабатывает POST /{reportID}/versions/publish.
// is_reset_published=true снимает публикацию вместо публикации.
func (h *VersionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "Publish", err)
		return
	}
	var req models.PublishRequest
	if !decodeBody(w, r, "Publish", &req) {
		return
	}
	if req.VersionID <= 0 {
		writeError(w, "Publish", fmt.Errorf("%w: version_id", errBadID))
		return
	}

	if req.IsResetPublished {
		err = h.service.Unpublish(r.Context(), reportID, req.VersionID)
	} else {
		err = h.service.Publish(r.Context(), reportID, req.VersionID)
	}
	if err != nil {
		writeError(w, "Publish", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteVersions обрабатывает DELETE /versions?ids=1,2.
func (h *VersionHandler) DeleteVersions(w http.ResponseWriter, r *http.Request) {
	ids, err := idsQuery(r)
	if err == nil {
		err = h.service.DeleteVersions(r.Context(), ids)
	}
	if err != nil {
		writeError(w, "DeleteVersions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Download обрабатывает GET /{reportID}/versions/{versionID}/download и отдает макет потоком.
func (h *VersionHandler) Download(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "Download", err)
		return
	}
	versionID, err := idParam(r, "versionID")
	if err != nil {
		writeError(w, "Download", err)
		return
	}

	body, size, err := h.service.DownloadLayout(r.Context(), reportID, versionID)
	if err != nil {
		writeError(w, "Download", err)
		return
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			log.Printf("[VersionHandler:Download] Ошибка закрытия потока макета: %v", closeErr)
		}
	}()

	filename := fmt.Sprintf("report_%d_version_%d.repx", reportID, versionID)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Type", storage.LayoutContentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, body)
	if err != nil {
		log.Printf("[VersionHandler:Download] Ошибка отправки макета версии %d: %v", versionID, err)
		return
	}
	log.Printf("[VersionHandler:Download] Макет версии %d отправлен (%d байт)", versionID, written)
}

// Upload обрабатывает POST /{reportID}/versions?version=1.2: тело запроса - макет.
func (h *VersionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "Upload", err)
		return
	}

	size := r.ContentLength
	if size <= 0 {
		log.Printf("[VersionHandler:Upload] Неверный или отсутствующий заголовок Content-Length: %d", size)
		writeMessage(w, http.StatusBadRequest, "Неверный или отсутствующий заголовок Content-Length")
		return
	}

	version, err := h.service.UploadVersion(r.Context(), services.LayoutUpload{
		ReportID:    reportID,
		Version:     r.URL.Query().Get("version"),
		ModifiedBy:  currentUser(r),
		Body:        r.Body,
		Size:        size,
		ContentType: r.Header.Get("Content-Type"),
	})
	if err != nil {
		writeError(w, "Upload", err)
		return
	}
	writeData(w, http.StatusCreated, version)
}
