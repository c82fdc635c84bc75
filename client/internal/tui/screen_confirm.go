package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/workflow"
)

// confirmPrompt возвращает вопрос подтверждения для действия.
func confirmPrompt(w workflow.Workflow) string {
	switch w.Kind {
	case workflow.Delete:
		return fmt.Sprintf("Удалить отчет #%d вместе с версиями?", w.Targets[0])
	case workflow.BulkDelete:
		return fmt.Sprintf("Удалить отмеченные отчеты (%d) вместе с версиями?", len(w.Targets))
	case workflow.Publish:
		return fmt.Sprintf("Опубликовать версию #%d? Текущая опубликованная версия будет снята.", w.Targets[0])
	case workflow.Unpublish:
		return fmt.Sprintf("Снять публикацию версии #%d?", w.Targets[0])
	case workflow.DeleteVersions:
		return fmt.Sprintf("Удалить версии (%d)?", len(w.Targets))
	default:
		return fmt.Sprintf("Выполнить %s?", w.Kind)
	}
}

// updateConfirmScreen обрабатывает подтверждение действия.
func (m *model) updateConfirmScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.submitting {
		return m, nil
	}
	switch keyMsg.String() {
	case keyYes, keyEnter:
		m.submitting = true
		slog.Info("Действие подтверждено", "kind", m.confirmKind.String())
		return m, submitCmd(m.ctx, m.dash, m.confirmKind)
	case keyNo, keyEsc:
		if err := m.dash.Cancel(m.confirmKind); err != nil {
			slog.Warn("Не удалось отменить действие", "kind", m.confirmKind.String(), "error", err)
		}
		m.state = m.prevState
	}
	return m, nil
}

// viewConfirmScreen отрисовывает подтверждение.
func (m *model) viewConfirmScreen() string {
	w := m.dash.Workflow(m.confirmKind)
	if len(w.Targets) == 0 {
		return "Нет действия для подтверждения."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(confirmPrompt(w)))
	b.WriteString("\n\n")
	switch {
	case m.submitting:
		b.WriteString("Выполняется...")
	case w.Err != nil:
		b.WriteString(fmt.Sprintf("Ошибка: %v\nПовторить? (y/n)", w.Err))
	default:
		b.WriteString("(y/n)")
	}
	return b.String()
}
