package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/maynagashev/reportkeeper/models" // Общие модели клиента и сервера
)

// ErrAuthorization сигнализирует об ошибке авторизации (401).
var ErrAuthorization = errors.New("ошибка авторизации")

// ErrNotFound сигнализирует, что запрошенный ресурс не найден (404).
var ErrNotFound = errors.New("ресурс не найден")

// Error описывает неуспешный ответ API: статус и содержимое конверта.
type Error struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		msg += " (" + strings.Join(e.Errors, "; ") + ")"
	}
	return fmt.Sprintf("ошибка API: статус %d: %s", e.StatusCode, msg)
}

// Unwrap позволяет сравнивать ошибку с ErrAuthorization и ErrNotFound через errors.Is.
func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthorization
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client определяет интерфейс для взаимодействия с API отчетов.
type Client interface {
	// Login аутентифицирует пользователя и возвращает JWT токен.
	Login(ctx context.Context, username, password string) (string, error)
	// ListCompanies получает список компаний окружения.
	ListCompanies(ctx context.Context) ([]models.Company, error)
	// ListReports получает отчеты компании, search - серверный поиск по имени.
	ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error)
	// DeleteReports удаляет отчеты по списку ID.
	DeleteReports(ctx context.Context, ids []int64) error
	// CopyReport копирует один отчет в компанию.
	CopyReport(ctx context.Context, reportID int64, req models.CopyReportRequest) (*models.Report, error)
	// CopyReports копирует несколько отчетов в компанию.
	CopyReports(ctx context.Context, req models.BulkCopyRequest) ([]models.Report, error)
	// CopyReportsWithMetadata копирует отчеты вместе с версиями и макетами.
	CopyReportsWithMetadata(ctx context.Context, req models.CopyWithMetadataRequest) ([]models.Report, error)
	// ListVersions получает версии отчета.
	ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error)
	// GetVersion получает одну версию.
	GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error)
	// PublishVersion публикует версию отчета.
	PublishVersion(ctx context.Context, reportID, versionID int64) error
	// UnpublishVersion снимает публикацию версии.
	UnpublishVersion(ctx context.Context, reportID, versionID int64) error
	// DeleteVersions удаляет версии по списку ID.
	DeleteVersions(ctx context.Context, ids []int64) error
	// DownloadVersion скачивает макет версии. Вызывающая сторона закрывает поток.
	DownloadVersion(ctx context.Context, reportID, versionID int64) (io.ReadCloser, error)
	// GetReportKPIs получает статистику отчетов компании.
	GetReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error)
	// ListLinkedPages получает страницы, на которые встроен отчет.
	ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error)
	// GenerateLink создает ссылку на отчет.
	GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error)
	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL окружения, например "http://localhost:8080/api"
	httpClient *http.Client // HTTP клиент, таймауты по умолчанию

	mu        sync.RWMutex // Защищает authToken: TUI и фоновые запросы работают параллельно
	authToken string       // JWT токен для аутентифицированных запросов
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// validator реализуется моделями, которые проверяются на границе сети.
type validator interface {
	Validate() error
}

func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

// endpoint собирает URL из базового адреса, сегментов пути и параметров запроса.
func (c *httpClient) endpoint(query url.Values, segments ...string) (string, error) {
	u, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// do выполняет запрос с JSON телом (если body != nil) и возвращает ответ.
// Тело ответа закрывает вызывающая сторона.
func (c *httpClient) do(ctx context.Context, method, rawURL string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка кодирования тела запроса: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса %s %s: %w", method, rawURL, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Сетевая ошибка запроса к API", "method", method, "url", rawURL, "error", err)
		return nil, fmt.Errorf("ошибка выполнения запроса %s %s: %w", method, rawURL, err)
	}
	return resp, nil
}

// errorFromResponse читает тело неуспешного ответа и пытается достать сообщение из конверта.
func errorFromResponse(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	var env models.Envelope[json.RawMessage]
	if body, err := io.ReadAll(resp.Body); err == nil && len(body) > 0 {
		if json.Unmarshal(body, &env) == nil {
			apiErr.Message = env.Message
			apiErr.Errors = env.Errors
		}
	}
	return apiErr
}

// decodeEnvelope декодирует конверт {data, success, message, errors} и проверяет данные.
func decodeEnvelope[T any](resp *http.Response) (T, error) {
	var zero T
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, errorFromResponse(resp)
	}
	var env models.Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	if !env.Success {
		return zero, &Error{StatusCode: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	if err := validate(env.Data); err != nil {
		return zero, err
	}
	return env.Data, nil
}

// decodeList декодирует списочный конверт и проверяет каждый элемент.
func decodeList[T any](resp *http.Response) ([]T, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp)
	}
	var env models.ListEnvelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("ошибка декодирования списка: %w", err)
	}
	if !env.Success {
		return nil, &Error{StatusCode: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	for i := range env.Data {
		if err := validate(env.Data[i]); err != nil {
			return nil, err
		}
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env.Data, nil
}

// expectSuccess проверяет ответ мутации без полезных данных.
func expectSuccess(resp *http.Response) error {
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	_, err := decodeEnvelope[json.RawMessage](resp)
	return err
}

func idsQuery(ids []int64) url.Values {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return url.Values{"ids": []string{strings.Join(parts, ",")}}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Login отправляет запрос на вход и сохраняет токен.
func (c *httpClient) Login(ctx context.Context, username, password string) (string, error) {
	loginURL, err := c.endpoint(nil, "login")
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, loginURL, models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	loginResponse, err := decodeEnvelope[models.LoginResponse](resp)
	if err != nil {
		return "", err
	}
	if loginResponse.Token == "" {
		return "", errors.New("сервер вернул пустой токен")
	}
	c.SetAuthToken(loginResponse.Token)
	return loginResponse.Token, nil
}

// ListCompanies выполняет GET companies.
func (c *httpClient) ListCompanies(ctx context.Context) ([]models.Company, error) {
	listURL, err := c.endpoint(nil, "companies")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.Company](resp)
}

// ListReports выполняет GET companies/{id}/reports?search=.
func (c *httpClient) ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	listURL, err := c.endpoint(query, "companies", itoa(companyID), "reports")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.Report](resp)
}

// DeleteReports выполняет DELETE reports?ids=.
func (c *httpClient) DeleteReports(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return errors.New("не указаны отчеты для удаления")
	}
	deleteURL, err := c.endpoint(idsQuery(ids), "reports")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectSuccess(resp)
}

// CopyReport выполняет POST reports/{id}/copy.
func (c *httpClient) CopyReport(
	ctx context.Context,
	reportID int64,
	req models.CopyReportRequest,
) (*models.Report, error) {
	copyURL, err := c.endpoint(nil, "reports", itoa(reportID), "copy")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, copyURL, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	report, err := decodeEnvelope[models.Report](resp)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// CopyReports выполняет POST copy.
func (c *httpClient) CopyReports(ctx context.Context, req models.BulkCopyRequest) ([]models.Report, error) {
	copyURL, err := c.endpoint(nil, "copy")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, copyURL, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.Report](resp)
}

// CopyReportsWithMetadata выполняет POST copy-with-metadata.
func (c *httpClient) CopyReportsWithMetadata(
	ctx context.Context,
	req models.CopyWithMetadataRequest,
) ([]models.Report, error) {
	copyURL, err := c.endpoint(nil, "copy-with-metadata")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, copyURL, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.Report](resp)
}

// ListVersions выполняет GET {reportId}/versions.
func (c *httpClient) ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	listURL, err := c.endpoint(nil, itoa(reportID), "versions")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.ReportVersion](resp)
}

// GetVersion выполняет GET versions/{versionId}.
func (c *httpClient) GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	getURL, err := c.endpoint(nil, "versions", itoa(versionID))
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	version, err := decodeEnvelope[models.ReportVersion](resp)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// PublishVersion выполняет POST {reportId}/versions/publish с телом {version_id}.
func (c *httpClient) PublishVersion(ctx context.Context, reportID, versionID int64) error {
	return c.publish(ctx, reportID, models.PublishRequest{VersionID: versionID})
}

// UnpublishVersion выполняет тот же запрос с is_reset_published=true.
func (c *httpClient) UnpublishVersion(ctx context.Context, reportID, versionID int64) error {
	return c.publish(ctx, reportID, models.PublishRequest{VersionID: versionID, IsResetPublished: true})
}

func (c *httpClient) publish(ctx context.Context, reportID int64, body models.PublishRequest) error {
	publishURL, err := c.endpoint(nil, itoa(reportID), "versions", "publish")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, publishURL, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectSuccess(resp)
}

// DeleteVersions выполняет DELETE versions?ids=.
func (c *httpClient) DeleteVersions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return errors.New("не указаны версии для удаления")
	}
	deleteURL, err := c.endpoint(idsQuery(ids), "versions")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectSuccess(resp)
}

// DownloadVersion выполняет GET {reportId}/versions/{versionId}/download.
func (c *httpClient) DownloadVersion(ctx context.Context, reportID, versionID int64) (io.ReadCloser, error) {
	downloadURL, err := c.endpoint(nil, itoa(reportID), "versions", itoa(versionID), "download")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	// НЕ закрываем resp.Body при успехе, вызывающая сторона должна это сделать
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}
	return resp.Body, nil
}

// GetReportKPIs выполняет GET companies/{id}/report-kpis.
func (c *httpClient) GetReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	kpiURL, err := c.endpoint(nil, "companies", itoa(companyID), "report-kpis")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, kpiURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	kpis, err := decodeEnvelope[models.ReportKPIs](resp)
	if err != nil {
		return nil, err
	}
	return &kpis, nil
}

// ListLinkedPages выполняет GET {reportId}/linked-pages.
func (c *httpClient) ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	listURL, err := c.endpoint(nil, itoa(reportID), "linked-pages")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList[models.LinkedPage](resp)
}

// GenerateLink выполняет POST {reportId}/generate-link.
func (c *httpClient) GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error) {
	linkURL, err := c.endpoint(nil, itoa(reportID), "generate-link")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, linkURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	link, err := decodeEnvelope[models.GeneratedLink](resp)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *httpClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// DesignerURL строит reportUrl, который передается встраиваемому дизайнеру отчетов.
func DesignerURL(baseURL string, reportID, versionID int64) (string, error) {
	u, err := url.JoinPath(baseURL, itoa(reportID), "versions", itoa(versionID), "download")
	if err != nil {
		return "", fmt.Errorf("ошибка формирования URL дизайнера: %w", err)
	}
	return u, nil
}
