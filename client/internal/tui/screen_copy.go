package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// updateCopyScreen обрабатывает окно копирования.
//
//nolint:gocyclo // Поля окна
func (m *model) updateCopyScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.submitting {
		return m, nil
	}

	switch keyMsg.String() {
	case keyEsc:
		if err := m.dash.Cancel(m.copyKind); err != nil {
			slog.Warn("Не удалось закрыть окно копирования", "error", err)
		}
		m.copyNameInput.Blur()
		m.state = m.prevState
		return m, nil
	case keyTab, keyDown:
		m.moveCopyFocus(1)
		return m, nil
	case keyShiftTab, keyUp:
		m.moveCopyFocus(-1)
		return m, nil
	case keyEnter:
		form := m.copyForm()
		form.Name = strings.TrimSpace(m.copyNameInput.Value())
		if err := m.dash.UpdateForm(m.copyKind, form); err != nil {
			slog.Error("Не удалось обновить форму копирования", "error", err)
			return m, nil
		}
		m.submitting = true
		return m, submitCmd(m.ctx, m.dash, m.copyKind)
	}

	switch m.copyFocus {
	case copyFieldEnvironment:
		switch keyMsg.String() {
		case keyLeft:
			return m.cycleCopyEnvironment(-1)
		case keyRight:
			return m.cycleCopyEnvironment(1)
		}
	case copyFieldCompany:
		switch keyMsg.String() {
		case keyLeft:
			m.cycleCopyCompany(-1)
		case keyRight:
			m.cycleCopyCompany(1)
		}
	case copyFieldName:
		var cmd tea.Cmd
		m.copyNameInput, cmd = m.copyNameInput.Update(keyMsg)
		return m, cmd
	case copyFieldVersions:
		if keyMsg.String() == keySpace {
			form := m.copyForm()
			form.IncludeVersions = !form.IncludeVersions
			_ = m.dash.UpdateForm(m.copyKind, form)
		}
	}
	return m, nil
}

// copyForm возвращает текущие поля окна копирования.
func (m *model) copyForm() workflow.Form {
	return m.dash.Workflow(m.copyKind).Form
}

// copyFields возвращает поля, доступные для вида копирования.
// Новое имя задается только при копировании одного отчета.
func (m *model) copyFields() []int {
	if m.copyKind == workflow.Copy {
		return []int{copyFieldEnvironment, copyFieldCompany, copyFieldName, copyFieldVersions}
	}
	return []int{copyFieldEnvironment, copyFieldCompany, copyFieldVersions}
}

// moveCopyFocus переводит фокус на соседнее поле.
func (m *model) moveCopyFocus(delta int) {
	fields := m.copyFields()
	idx := 0
	for i, f := range fields {
		if f == m.copyFocus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	m.copyFocus = fields[idx]
	if m.copyFocus == copyFieldName {
		m.copyNameInput.Focus()
	} else {
		m.copyNameInput.Blur()
	}
}

// cycleCopyEnvironment меняет окружение назначения и загружает его компании.
func (m *model) cycleCopyEnvironment(delta int) (tea.Model, tea.Cmd) {
	envs := m.dash.Environments()
	if len(envs) == 0 {
		return m, nil
	}
	current := m.dash.State().CopyEnvironmentID()
	idx := 0
	for i, e := range envs {
		if e.ID == current {
			idx = i
		}
	}
	env := envs[(idx+delta+len(envs))%len(envs)]
	m.dash.Dispatch(store.SetCopyEnvironment{Env: &env})

	form := m.copyForm()
	form.TargetEnvironment = env.ID
	form.TargetCompanyID = 0
	_ = m.dash.UpdateForm(m.copyKind, form)
	slog.Debug("Окружение копирования изменено", "env", env.ID)
	m.clampCopyCompany()
	return m, loadCopyCompaniesCmd(m.ctx, m.dash, env)
}

// cycleCopyCompany меняет компанию назначения.
func (m *model) cycleCopyCompany(delta int) {
	companies := m.dash.CachedCompanies(query.ScopeCopy)
	if len(companies) == 0 {
		return
	}
	form := m.copyForm()
	idx := -1
	for i, c := range companies {
		if c.ID == form.TargetCompanyID {
			idx = i
		}
	}
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + delta + len(companies)) % len(companies)
	}
	form.TargetCompanyID = companies[idx].ID
	_ = m.dash.UpdateForm(m.copyKind, form)
}

// clampCopyCompany выбирает первую компанию, если выбранной нет в списке окружения копирования.
func (m *model) clampCopyCompany() {
	companies := m.dash.CachedCompanies(query.ScopeCopy)
	form := m.copyForm()
	for _, c := range companies {
		if c.ID == form.TargetCompanyID {
			return
		}
	}
	form.TargetCompanyID = 0
	if len(companies) > 0 {
		form.TargetCompanyID = companies[0].ID
	}
	_ = m.dash.UpdateForm(m.copyKind, form)
}

// companyName возвращает имя компании из списка или ее id.
func companyName(companies []models.Company, id int64) string {
	if id == 0 {
		return "не выбрана"
	}
	for _, c := range companies {
		if c.ID == id {
			return c.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// viewCopyScreen отрисовывает окно копирования.
func (m *model) viewCopyScreen() string {
	w := m.dash.Workflow(m.copyKind)
	s := m.dash.State()
	var b strings.Builder

	title := "Копирование отчета"
	if m.copyKind == workflow.BulkCopy {
		title = fmt.Sprintf("Копирование отчетов: %d", len(w.Targets))
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	env := "не выбрано"
	if s.CopyEnvironment != nil {
		env = s.CopyEnvironment.Name
	}
	companies := m.dash.CachedCompanies(query.ScopeCopy)
	fields := map[int]string{
		copyFieldEnvironment: fmt.Sprintf("Окружение: ‹ %s ›", env),
		copyFieldCompany:     fmt.Sprintf("Компания:  ‹ %s ›", companyName(companies, w.Form.TargetCompanyID)),
		copyFieldName:        "Имя:       " + m.copyNameInput.View(),
	}
	check := "[ ]"
	if w.Form.IncludeVersions {
		check = "[x]"
	}
	fields[copyFieldVersions] = check + " Копировать версии и макеты"

	for _, f := range m.copyFields() {
		line := fields[f]
		if f == m.copyFocus {
			line = selectedRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case m.submitting || w.Phase == workflow.Submitting:
		b.WriteString("\nКопирование...")
	case w.Err != nil:
		b.WriteString(fmt.Sprintf("\nОшибка: %v", w.Err))
	}
	return b.String()
}
