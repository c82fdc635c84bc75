// Package models содержит серверные записи, которые не передаются клиенту как есть.
package models

import "time"

// LinkRecord - сохраненная ссылка на отчет. Token попадает в публичный URL.
type LinkRecord struct {
	ID        int64     `db:"id"`
	ReportID  int64     `db:"report_id"`
	Title     string    `db:"title"`
	URL       string    `db:"url"`
	Token     string    `db:"token"`
	CreatedOn time.Time `db:"created_on"`
}

// CopyParams - параметры копирования отчетов.
type CopyParams struct {
	ReportIDs []int64
	CompanyID int64
	// Name задает имя копии, только для одного отчета.
	Name            string
	IncludeVersions bool
	ModifiedBy      string
}
