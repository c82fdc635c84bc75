package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/reportkeeper/client/internal/dashboard"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// screenState определяет текущий экран приложения.
type screenState int

const (
	environmentScreen screenState = iota // Выбор окружения
	companyScreen                        // Выбор компании
	reportListScreen                     // Таблица отчетов
	versionListScreen                    // Версии выбранного отчета
	copyScreen                           // Окно копирования
	linkScreen                           // Окно ссылок и связанных страниц
	confirmScreen                        // Подтверждение действия
	loginScreen                          // Вход в окружение
)

// String возвращает имя экрана для отладки.
func (s screenState) String() string {
	switch s {
	case environmentScreen:
		return "environmentScreen"
	case companyScreen:
		return "companyScreen"
	case reportListScreen:
		return "reportListScreen"
	case versionListScreen:
		return "versionListScreen"
	case copyScreen:
		return "copyScreen"
	case linkScreen:
		return "linkScreen"
	case confirmScreen:
		return "confirmScreen"
	case loginScreen:
		return "loginScreen"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Клавиши.
const (
	keyEnter     = "enter"
	keyQuit      = "q"
	keyEsc       = "esc"
	keyBack      = "b"
	keyTab       = "tab"
	keyShiftTab  = "shift+tab"
	keyUp        = "up"
	keyDown      = "down"
	keyLeft      = "left"
	keyRight     = "right"
	keySpace     = " "
	keySearch    = "/"
	keyRefresh   = "r"
	keyNextPage  = "n"
	keyPrevPage  = "p"
	keyCopy      = "c"
	keyDelete    = "d"
	keyLink      = "l"
	keyEnv       = "e"
	keyCompany   = "o"
	keyLogin     = "L"
	keyPublish   = "P"
	keyUnpublish = "U"
	keyDownload  = "s"
	keyDesigner  = "u"
	keyGenerate  = "g"
	keyYes       = "y"
	keyNo        = "n"
	keyCtrlC     = "ctrl+c"
)

// Поля окна копирования.
const (
	copyFieldEnvironment = iota
	copyFieldCompany
	copyFieldName
	copyFieldVersions
)

// environmentItem - элемент списка окружений.
type environmentItem struct {
	env models.Environment
}

func (i environmentItem) Title() string       { return i.env.Name }
func (i environmentItem) Description() string { return i.env.URL }
func (i environmentItem) FilterValue() string { return i.env.Name }

// companyItem - элемент списка компаний.
type companyItem struct {
	company models.Company
}

func (i companyItem) Title() string { return i.company.Name }
func (i companyItem) Description() string {
	return fmt.Sprintf("ID: %d  %s", i.company.ID, i.company.Status)
}
func (i companyItem) FilterValue() string { return i.company.Name }

// linkedPageItem - элемент списка связанных страниц.
type linkedPageItem struct {
	page models.LinkedPage
}

func (i linkedPageItem) Title() string {
	if i.page.Title == "" {
		return i.page.URL
	}
	return i.page.Title
}
func (i linkedPageItem) Description() string { return i.page.URL }
func (i linkedPageItem) FilterValue() string { return i.page.Title }

// --- Сообщения --- //

// companiesLoadedMsg - загружен список компаний области scope.
type companiesLoadedMsg struct {
	key query.Key
	err error
}

// overviewLoadedMsg - загружены отчеты и статистика компании.
type overviewLoadedMsg struct {
	key query.Key
	err error
}

// versionsLoadedMsg - загружены версии выбранного отчета.
type versionsLoadedMsg struct {
	key query.Key
	err error
}

// linkedPagesLoadedMsg - загружены связанные страницы отчета.
type linkedPagesLoadedMsg struct {
	reportID int64
	pages    []models.LinkedPage
	err      error
}

// workflowDoneMsg - действие завершено.
type workflowDoneMsg struct {
	kind workflow.Kind
	err  error
}

// linkGeneratedMsg - создана ссылка на отчет.
type linkGeneratedMsg struct {
	link *models.GeneratedLink
	err  error
}

// loginDoneMsg - завершен вход.
type loginDoneMsg struct {
	err error
}

// downloadDoneMsg - макет скачан.
type downloadDoneMsg struct {
	path  string
	bytes int64
	err   error
}

// dismissNotificationMsg - истек срок показа уведомления.
type dismissNotificationMsg struct {
	id uint64
}

// model - модель TUI.
type model struct {
	ctx  context.Context
	dash *dashboard.Dashboard

	state     screenState // Текущий экран
	prevState screenState // Экран, из которого открыто окно
	debugMode bool        // Режим отладки
	width     int
	height    int
	docStyle  lipgloss.Style

	environmentList list.Model // Выбор окружения
	companyList     list.Model // Выбор компании
	linkList        list.Model // Связанные страницы

	queryInput     textinput.Model // Строка поиска отчетов
	copyNameInput  textinput.Model // Новое имя при копировании
	usernameInput  textinput.Model // Логин
	passwordInput  textinput.Model // Пароль
	loginFocus     int             // 0 - логин, 1 - пароль
	copyFocus      int             // Активное поле окна копирования
	reportCursor   int             // Позиция курсора на странице отчетов
	versionCursor  int             // Позиция курсора в списке версий
	confirmKind    workflow.Kind   // Действие, ожидающее подтверждения
	copyKind       workflow.Kind   // Одиночное или массовое копирование
	linkReportID   int64           // Отчет окна ссылок
	lastLink       string          // Последняя созданная ссылка
	downloadDir    string          // Каталог для скачанных макетов
	loadingReports bool
	loadingVers    bool
	submitting     bool

	scheduled   map[uint64]bool // Уведомления, для которых запущен таймер
	helpTextMap map[screenState]string
}

// initModel создает модель поверх дашборда.
func initModel(ctx context.Context, dash *dashboard.Dashboard, debugMode bool, downloadDir string) model {
	queryInput := textinput.New()
	queryInput.Placeholder = "Поиск по имени"
	queryInput.Prompt = "/ "
	queryInput.CharLimit = 128

	copyNameInput := textinput.New()
	copyNameInput.Placeholder = "Имя копии (необязательно)"
	copyNameInput.CharLimit = 256

	usernameInput := textinput.New()
	usernameInput.Placeholder = "Имя пользователя"
	usernameInput.CharLimit = 64

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Пароль"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.EchoCharacter = '*'
	passwordInput.CharLimit = 128

	environmentList := list.New(nil, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	environmentList.Title = "Окружения"
	environmentList.SetShowHelp(false)

	companyList := list.New(nil, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	companyList.Title = "Компании"
	companyList.SetShowHelp(false)

	linkList := list.New(nil, list.NewDefaultDelegate(), defaultListWidth, defaultListHeight)
	linkList.Title = "Связанные страницы"
	linkList.SetShowHelp(false)
	linkList.SetFilteringEnabled(false)

	items := make([]list.Item, 0, len(dash.Environments()))
	for _, env := range dash.Environments() {
		items = append(items, environmentItem{env: env})
	}
	environmentList.SetItems(items)

	return model{
		ctx:             ctx,
		dash:            dash,
		state:           environmentScreen,
		debugMode:       debugMode,
		docStyle:        lipgloss.NewStyle().Margin(docStyleMarginVertical, docStyleMarginHorizontal),
		environmentList: environmentList,
		companyList:     companyList,
		linkList:        linkList,
		queryInput:      queryInput,
		copyNameInput:   copyNameInput,
		usernameInput:   usernameInput,
		passwordInput:   passwordInput,
		downloadDir:     downloadDir,
		scheduled:       make(map[uint64]bool),
		helpTextMap: map[screenState]string{
			environmentScreen: "(enter: выбрать, /: фильтр, q: выход)",
			companyScreen:     "(enter: выбрать, e: окружение, L: вход, /: фильтр, q: выход)",
			reportListScreen: "(↑/↓: курсор, space: отметить, enter: версии, /: поиск, n/p: страницы, " +
				"c: копировать, d: удалить, l: ссылки, o: компания, e: окружение, r: обновить, q: выход)",
			versionListScreen: "(↑/↓: курсор, space: отметить, P: опубликовать, U: снять, d: удалить отмеченные, " +
				"s: скачать, u: дизайнер, r: обновить, esc: назад)",
			copyScreen:    "(tab: поле, ←/→: значение, space: версии, enter: копировать, esc: отмена)",
			linkScreen:    "(g: создать ссылку, r: обновить, esc: закрыть)",
			confirmScreen: "(y/enter: подтвердить, n/esc: отмена)",
			loginScreen:   "(tab: поле, enter: войти, esc: назад)",
		},
	}
}
