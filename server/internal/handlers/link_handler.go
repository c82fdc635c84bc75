package handlers

import (
	"net/http"

	"github.com/maynagashev/reportkeeper/server/internal/services"
)

// LinkHandler обслуживает связанные страницы и генерацию ссылок.
type LinkHandler struct {
	service services.LinkService
}

// NewLinkHandler создает новый экземпляр LinkHandler.
func NewLinkHandler(s services.LinkService) *LinkHandler {
	return &LinkHandler{service: s}
}

// ListLinkedPages обрабатывает GET /{reportID}/linked-pages.
func (h *LinkHandler) ListLinkedPages(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "ListLinkedPages", err)
		return
	}
	pages, err := h.service.ListLinkedPages(r.Context(), reportID)
	if err != nil {
		writeError(w, "ListLinkedPages", err)
		return
	}
	writeList(w, pages)
}

// GenerateLink обрабатывает POST /{reportID}/generate-link.
func (h *LinkHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	reportID, err := idParam(r, "reportID")
	if err != nil {
		writeError(w, "GenerateLink", err)
		return
	}
	link, err := h.service.GenerateLink(r.Context(), reportID)
	if err != nil {
		writeError(w, "GenerateLink", err)
		return
	}
	writeData(w, http.StatusCreated, link)
}
