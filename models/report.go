package models

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Ошибки валидации сущностей, пришедших по сети.
var (
	ErrInvalidEntity = errors.New("некорректные данные сущности")
)

// Company - тенант, которому принадлежат отчеты.
type Company struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
}

// Validate проверяет обязательные поля компании.
func (c Company) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: компания с id %d", ErrInvalidEntity, c.ID)
	}
	return nil
}

// Environment - целевое окружение развертывания, определяет базовый URL API.
type Environment struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Validate проверяет, что у окружения есть идентификатор и абсолютный http(s) URL.
func (e Environment) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: окружение без id", ErrInvalidEntity)
	}
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("%w: окружение '%s': неверный url: %w", ErrInvalidEntity, e.ID, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: окружение '%s': url должен быть абсолютным http(s)", ErrInvalidEntity, e.ID)
	}
	return nil
}

// Report - определение отчета, принадлежит ровно одной компании.
type Report struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CreatedOn  time.Time `db:"created_on" json:"createdOn"`
	ModifiedOn time.Time `db:"modified_on" json:"modifiedOn"`
	ModifiedBy string    `db:"modified_by" json:"modifiedBy"`
	Active     bool      `db:"active" json:"active"`
	CompanyID  int64     `db:"company_id" json:"companyId"`
}

// Validate проверяет обязательные поля отчета.
func (r Report) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: отчет с id %d", ErrInvalidEntity, r.ID)
	}
	if r.CompanyID <= 0 {
		return fmt.Errorf("%w: отчет %d без компании", ErrInvalidEntity, r.ID)
	}
	return nil
}

// ReportVersion - снимок макета отчета, может быть опубликован.
type ReportVersion struct {
	ID          int64     `db:"id" json:"id"`
	Version     string    `db:"version" json:"version"`
	ReportID    int64     `db:"report_id" json:"reportId"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	CreatedOn   time.Time `db:"created_on" json:"createdOn"`
	ModifiedBy  string    `db:"modified_by" json:"modifiedBy"`
	// Ключ макета в объектном хранилище, наружу не отдается.
	ObjectKey string `db:"object_key" json:"-"`
}

// Validate проверяет обязательные поля версии.
func (v ReportVersion) Validate() error {
	if v.ID <= 0 {
		return fmt.Errorf("%w: версия с id %d", ErrInvalidEntity, v.ID)
	}
	if v.ReportID <= 0 {
		return fmt.Errorf("%w: версия %d без отчета", ErrInvalidEntity, v.ID)
	}
	return nil
}

// ReportKPIs - агрегированная статистика по отчетам компании.
type ReportKPIs struct {
	CompanyID         int64 `db:"company_id" json:"companyId"`
	TotalReports      int   `db:"total_reports" json:"totalReports"`
	ActiveReports     int   `db:"active_reports" json:"activeReports"`
	InactiveReports   int   `db:"inactive_reports" json:"inactiveReports"`
	TotalVersions     int   `db:"total_versions" json:"totalVersions"`
	PublishedVersions int   `db:"published_versions" json:"publishedVersions"`
}

// LinkedPage - страница, на которую встроен отчет.
type LinkedPage struct {
	ID        int64     `db:"id" json:"id"`
	ReportID  int64     `db:"report_id" json:"reportId"`
	Title     string    `db:"title" json:"title"`
	URL       string    `db:"url" json:"url"`
	CreatedOn time.Time `db:"created_on" json:"createdOn"`
}

// Validate проверяет обязательные поля страницы.
func (p LinkedPage) Validate() error {
	if p.ReportID <= 0 || p.URL == "" {
		return fmt.Errorf("%w: связанная страница %d", ErrInvalidEntity, p.ID)
	}
	return nil
}

// GeneratedLink - ссылка на отчет, созданная сервером.
type GeneratedLink struct {
	ReportID int64  `json:"reportId"`
	URL      string `json:"url"`
	Token    string `json:"token"`
}

// Validate проверяет, что сервер вернул ссылку.
func (l GeneratedLink) Validate() error {
	if l.URL == "" {
		return fmt.Errorf("%w: пустая ссылка для отчета %d", ErrInvalidEntity, l.ReportID)
	}
	return nil
}
