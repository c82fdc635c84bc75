package models

// Envelope - общий конверт JSON-ответов API.
type Envelope[T any] struct {
	Data    T        `json:"data"`
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ListEnvelope - конверт списочных ответов с данными пагинации.
type ListEnvelope[T any] struct {
	Data       []T      `json:"data"`
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}

// NewListEnvelope собирает успешный списочный ответ для одной страницы, содержащей все элементы.
func NewListEnvelope[T any](items []T) ListEnvelope[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if len(items) > 0 {
		totalPages = 1
	}
	return ListEnvelope[T]{
		Data:       items,
		Success:    true,
		Total:      len(items),
		Page:       1,
		PageSize:   len(items),
		TotalPages: totalPages,
	}
}

// CopyReportRequest - тело запроса POST reports/{id}/copy.
type CopyReportRequest struct {
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name,omitempty"`
}

// BulkCopyRequest - тело запроса POST copy.
type BulkCopyRequest struct {
	ReportIDs []int64 `json:"report_ids"`
	CompanyID int64   `json:"company_id"`
}

// CopyWithMetadataRequest - тело запроса POST copy-with-metadata.
type CopyWithMetadataRequest struct {
	ReportIDs       []int64 `json:"report_ids"`
	CompanyID       int64   `json:"company_id"`
	IncludeVersions bool    `json:"include_versions"`
}

// PublishRequest - тело запроса POST {reportId}/versions/publish.
// IsResetPublished=true означает снятие публикации.
type PublishRequest struct {
	VersionID        int64 `json:"version_id"`
	IsResetPublished bool  `json:"is_reset_published,omitempty"`
}
