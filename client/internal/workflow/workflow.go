// Package workflow описывает конечные автоматы действий над отчетами и версиями:
// Idle -> ConfirmPending -> Submitting -> Idle, с возвратом в ConfirmPending при ошибке.
package workflow

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNoSelection - действие открыто без целей, запрос не выполняется.
	ErrNoSelection = errors.New("no items selected")
	// ErrInvalidTransition - переход недопустим в текущей фазе.
	ErrInvalidTransition = errors.New("invalid workflow transition")
)

// Kind - тип действия.
type Kind int

const (
	Copy Kind = iota + 1
	BulkCopy
	Delete
	BulkDelete
	Link
	Publish
	Unpublish
	DeleteVersions
)

func (k Kind) String() string {
	switch k {
	case Copy:
		return "copy"
	case BulkCopy:
		return "bulk-copy"
	case Delete:
		return "delete"
	case BulkDelete:
		return "bulk-delete"
	case Link:
		return "link"
	case Publish:
		return "publish"
	case Unpublish:
		return "unpublish"
	case DeleteVersions:
		return "delete-versions"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Phase - фаза автомата.
type Phase int

const (
	Idle Phase = iota
	ConfirmPending
	Submitting
)

func (p Phase) String() string {
	switch p {
	case ConfirmPending:
		return "confirm-pending"
	case Submitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Form - поля модального окна. Сохраняются при ошибке отправки.
type Form struct {
	// Окружение и компания назначения при копировании.
	TargetEnvironment string
	TargetCompanyID   int64
	// Новое имя для одиночного копирования.
	Name string
	// Копировать версии вместе с отчетами.
	IncludeVersions bool
	// Отчет, в котором находятся целевые версии.
	ReportID int64
}

// Workflow - состояние одного действия.
type Workflow struct {
	Kind    Kind
	Phase   Phase
	Targets []int64
	Form    Form
	Err     error
}

// New создает автомат в фазе Idle.
func New(kind Kind) *Workflow {
	return &Workflow{Kind: kind}
}

// Open переводит Idle -> ConfirmPending с набором целей.
// Пустой набор целей дает ErrNoSelection, фаза не меняется.
func (w *Workflow) Open(targets []int64) error {
	if w.Phase != Idle {
		return fmt.Errorf("%w: open %s in %s", ErrInvalidTransition, w.Kind, w.Phase)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%s: %w", w.Kind, ErrNoSelection)
	}
	w.Targets = slices.Clone(targets)
	w.Form = Form{}
	w.Err = nil
	w.Phase = ConfirmPending
	return nil
}

// SetForm обновляет поля формы, пока окно открыто.
func (w *Workflow) SetForm(f Form) error {
	if w.Phase != ConfirmPending {
		return fmt.Errorf("%w: edit form in %s", ErrInvalidTransition, w.Phase)
	}
	w.Form = f
	return nil
}

// Submit переводит ConfirmPending -> Submitting.
func (w *Workflow) Submit() error {
	if w.Phase != ConfirmPending {
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, w.Phase)
	}
	w.Err = nil
	w.Phase = Submitting
	return nil
}

// Succeed переводит Submitting -> Idle и сбрасывает цели и форму.
func (w *Workflow) Succeed() error {
	if w.Phase != Submitting {
		return fmt.Errorf("%w: succeed in %s", ErrInvalidTransition, w.Phase)
	}
	w.reset()
	return nil
}

// Fail переводит Submitting -> ConfirmPending, сохраняя цели и форму.
func (w *Workflow) Fail(err error) error {
	if w.Phase != Submitting {
		return fmt.Errorf("%w: fail in %s", ErrInvalidTransition, w.Phase)
	}
	w.Err = err
	w.Phase = ConfirmPending
	return nil
}

// Cancel закрывает окно из ConfirmPending. Во время отправки отмена недоступна.
func (w *Workflow) Cancel() error {
	switch w.Phase {
	case Idle:
		return nil
	case ConfirmPending:
		w.reset()
		return nil
	default:
		return fmt.Errorf("%w: cancel in %s", ErrInvalidTransition, w.Phase)
	}
}

// Active сообщает, открыто ли окно действия.
func (w *Workflow) Active() bool {
	return w.Phase != Idle
}

func (w *Workflow) reset() {
	w.Phase = Idle
	w.Targets = nil
	w.Form = Form{}
	w.Err = nil
}
