package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/maynagashev/reportkeeper/models"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
)

const sharedPath = "/shared/"

// LinkService выдает ссылки на отчеты и список страниц, где отчет встроен.
type LinkService interface {
	ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error)
	GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error)
}

var _ LinkService = (*linkService)(nil)

type linkService struct {
	reports   repository.ReportRepository
	links     repository.LinkRepository
	publicURL string
}

// NewLinkService создает сервис ссылок. publicURL - внешний адрес, от которого строятся ссылки.
func NewLinkService(
	reports repository.ReportRepository,
	links repository.LinkRepository,
	publicURL string,
) LinkService {
	return &linkService{reports: reports, links: links, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *linkService) ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return nil, mapRepoError("поиск отчета", err)
	}
	pages, err := s.links.ListByReport(ctx, reportID)
	if err != nil {
		return nil, mapRepoError("получение связанных страниц", err)
	}
	return pages, nil
}

// GenerateLink создает ссылку со случайным токеном и сохраняет ее среди страниц отчета.
func (s *linkService) GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, mapRepoError("поиск отчета", err)
	}
	token := uuid.NewString()
	link, err := s.links.Create(ctx, &srvmodels.LinkRecord{
		ReportID: report.ID,
		Title:    report.Name,
		URL:      s.publicURL + sharedPath + token,
		Token:    token,
	})
	if err != nil {
		return nil, mapRepoError("создание ссылки", err)
	}
	log.Printf("[LinkService] Создана ссылка %d для отчета %d", link.ID, report.ID)
	return &models.GeneratedLink{ReportID: link.ReportID, URL: link.URL, Token: link.Token}, nil
}
