package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/powertimer"
)

type createTemplateRequest struct {
	Name            *string `json:"name"`
	DurationMinutes *int    `json:"duration_minutes"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
}

func (r createTemplateRequest) toRecord() (powertimer.TemplateRecord, error) {
	switch {
	case r.Name == nil:
		return powertimer.TemplateRecord{}, &powertimer.ValidationError{Field: "name", Reason: "required"}
	case r.DurationMinutes == nil:
		return powertimer.TemplateRecord{}, &powertimer.ValidationError{Field: "duration_minutes", Reason: "required"}
	case r.Description == nil:
		return powertimer.TemplateRecord{}, &powertimer.ValidationError{Field: "description", Reason: "required"}
	case r.Category == nil:
		return powertimer.TemplateRecord{}, &powertimer.ValidationError{Field: "category", Reason: "required"}
	}
	record := powertimer.TemplateRecord{
		Name:            *r.Name,
		DurationMinutes: *r.DurationMinutes,
		Description:     *r.Description,
		Category:        *r.Category,
	}
	return record, record.Validate()
}

type TemplateManager interface {
	CreateTemplate(context.Context, createTemplateRequest) (powertimer.ExistingTemplateRecord, error)
	ListTemplates(context.Context) ([]powertimer.ExistingTemplateRecord, error)
	// Instantiate creates a timer from a template. An empty name keeps the
	// template's own name.
	Instantiate(ctx context.Context, id powertimer.TemplateID, name string) (powertimer.ExistingTimerRecord, error)
	SeedDefaults(context.Context) (int, error)
}

type templateManager struct {
	templates    powertimer.TemplateRepo
	timerManager TimerManager
	tx           transactor.Transactor
	l            *log.Logger
}

func NewTemplateManager(templates powertimer.TemplateRepo, timerManager TimerManager, tx transactor.Transactor, logger *log.Logger) TemplateManager {
	return &templateManager{
		templates:    templates,
		timerManager: timerManager,
		tx:           tx,
		l:            logger,
	}
}

func (m *templateManager) CreateTemplate(ctx context.Context, req createTemplateRequest) (powertimer.ExistingTemplateRecord, error) {
	record, err := req.toRecord()
	if err != nil {
		return powertimer.ExistingTemplateRecord{}, err
	}

	template, err := m.templates.InsertTemplate(ctx, record)
	if err != nil {
		return powertimer.ExistingTemplateRecord{}, fmt.Errorf("failed to insert template: %w", err)
	}
	m.l.Debug("created template", "id", template.ID, "name", template.Name)
	return template, nil
}

func (m *templateManager) ListTemplates(ctx context.Context) ([]powertimer.ExistingTemplateRecord, error) {
	return m.templates.GetAllTemplates(ctx)
}

func (m *templateManager) Instantiate(ctx context.Context, id powertimer.TemplateID, name string) (powertimer.ExistingTimerRecord, error) {
	template, err := m.templates.GetTemplate(ctx, id)
	if err != nil {
		return powertimer.ExistingTimerRecord{}, err
	}

	if name == "" {
		name = template.Name
	}
	duration := template.DurationMinutes * 60
	return m.timerManager.CreateTimer(ctx, createTimerRequest{
		Name:            &name,
		DurationSeconds: &duration,
		Category:        template.Category,
		TemplateID:      &template.ID,
	})
}

// SeedDefaults inserts each default template whose name is not taken yet and
// returns how many were inserted.
func (m *templateManager) SeedDefaults(ctx context.Context) (int, error) {
	var created int
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created = 0
		for _, record := range powertimer.DefaultTemplates {
			_, err := m.templates.GetTemplateByName(ctx, record.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, powertimer.ErrNotFound) {
				return fmt.Errorf("failed to look up template %q: %w", record.Name, err)
			}

			if _, err := m.templates.InsertTemplate(ctx, record); err != nil {
				return fmt.Errorf("failed to insert template %q: %w", record.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.l.Info("seeded default templates", "created", created)
	return created, nil
}
