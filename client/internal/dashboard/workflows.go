package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// defaultTargets возвращает цели действия kind из текущего выделения.
func defaultTargets(kind workflow.Kind, s store.State) []int64 {
	switch kind {
	case workflow.BulkCopy, workflow.BulkDelete:
		return s.SelectedReportIDs
	case workflow.DeleteVersions:
		return s.SelectedVersionIDs
	case workflow.Copy, workflow.Delete, workflow.Link:
		if id := singleReportID(s); id != 0 {
			return []int64{id}
		}
		return nil
	default:
		// Публикация требует явной версии
		return nil
	}
}

// Begin открывает окно действия kind. Без явных целей они берутся из выделения.
// Пустой набор целей дает предупреждение и ErrNoSelection, запрос не выполняется.
func (d *Dashboard) Begin(kind workflow.Kind, targets ...int64) error {
	s := d.State()
	if len(targets) == 0 {
		targets = defaultTargets(kind, s)
	}

	d.wfMu.Lock()
	w := d.workflowLocked(kind)
	err := w.Open(targets)
	if err == nil {
		form := workflow.Form{ReportID: singleReportID(s)}
		if s.CurrentEnvironment != nil {
			form.TargetEnvironment = s.CurrentEnvironment.ID
		}
		form.TargetCompanyID = companyID(s)
		_ = w.SetForm(form)
	}
	d.wfMu.Unlock()

	if errors.Is(err, workflow.ErrNoSelection) {
		d.notes.Push(notify.Warning, "Ничего не выбрано")
		return err
	}
	if err != nil {
		return err
	}

	if kind == workflow.Copy || kind == workflow.BulkCopy {
		// Окно копирования начинает с текущего окружения
		d.store.Dispatch(store.SetCopyEnvironment{Env: s.CurrentEnvironment})
	}
	return nil
}

// UpdateForm меняет поля открытого окна.
func (d *Dashboard) UpdateForm(kind workflow.Kind, form workflow.Form) error {
	d.wfMu.Lock()
	defer d.wfMu.Unlock()
	return d.workflowLocked(kind).SetForm(form)
}

// Cancel закрывает окно действия без запроса.
func (d *Dashboard) Cancel(kind workflow.Kind) error {
	d.wfMu.Lock()
	err := d.workflowLocked(kind).Cancel()
	d.wfMu.Unlock()
	if err != nil {
		return err
	}
	if kind == workflow.Copy || kind == workflow.BulkCopy {
		d.store.Dispatch(store.SetCopyEnvironment{Env: nil})
	}
	return nil
}

// Submit отправляет открытое действие. При ошибке окно остается открытым с прежними полями.
func (d *Dashboard) Submit(ctx context.Context, kind workflow.Kind) error {
	d.wfMu.Lock()
	w := d.workflowLocked(kind)
	if err := w.Submit(); err != nil {
		d.wfMu.Unlock()
		return err
	}
	targets := w.Targets
	form := w.Form
	d.wfMu.Unlock()

	err := d.execute(ctx, kind, targets, form)

	d.wfMu.Lock()
	defer d.wfMu.Unlock()
	if err != nil {
		slog.Warn("Действие завершилось ошибкой", "kind", kind.String(), "error", err)
		return errors.Join(err, w.Fail(err))
	}
	if errSucceed := w.Succeed(); errSucceed != nil {
		return errSucceed
	}
	if kind == workflow.Copy || kind == workflow.BulkCopy {
		d.store.Dispatch(store.SetCopyEnvironment{Env: nil})
	}
	return nil
}

// execute выполняет запрос действия kind.
func (d *Dashboard) execute(ctx context.Context, kind workflow.Kind, targets []int64, form workflow.Form) error {
	switch kind {
	case workflow.Delete, workflow.BulkDelete:
		return d.DeleteReports(ctx, targets)
	case workflow.Copy, workflow.BulkCopy:
		target, err := d.copyTarget(form)
		if err != nil {
			d.notes.Push(notify.Warning, err.Error())
			return err
		}
		if kind == workflow.Copy && len(targets) == 1 && !form.IncludeVersions {
			_, err = d.CopyReport(ctx, targets[0], target)
			return err
		}
		_, err = d.CopyReports(ctx, targets, target)
		return err
	case workflow.Link:
		_, err := d.GenerateLink(ctx, targets[0])
		return err
	case workflow.Publish:
		return d.Publish(ctx, targets[0])
	case workflow.Unpublish:
		return d.Unpublish(ctx, targets[0])
	case workflow.DeleteVersions:
		return d.DeleteVersions(ctx, targets)
	default:
		return fmt.Errorf("%w: unknown kind %s", workflow.ErrInvalidTransition, kind)
	}
}

// ErrNoTargetCompany - в окне копирования не выбрана компания назначения.
var ErrNoTargetCompany = errors.New("выберите компанию назначения")

// copyTarget собирает назначение копирования из формы и окружения окна копирования.
func (d *Dashboard) copyTarget(form workflow.Form) (CopyTarget, error) {
	if form.TargetCompanyID == 0 {
		return CopyTarget{}, ErrNoTargetCompany
	}
	env, err := d.resolveEnvironment(form.TargetEnvironment)
	if err != nil {
		return CopyTarget{}, err
	}
	return CopyTarget{
		Environment:     env,
		CompanyID:       form.TargetCompanyID,
		Name:            form.Name,
		IncludeVersions: form.IncludeVersions,
	}, nil
}

// resolveEnvironment находит окружение по id: среди известных, затем в окне копирования и текущем.
func (d *Dashboard) resolveEnvironment(id string) (models.Environment, error) {
	for _, e := range d.envs {
		if e.ID == id {
			return e, nil
		}
	}
	s := d.State()
	for _, e := range []*models.Environment{s.CopyEnvironment, s.CurrentEnvironment} {
		if e != nil && (id == "" || e.ID == id) {
			return *e, nil
		}
	}
	return models.Environment{}, ErrNoEnvironment
}
