package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/powertimer"
)

const (
	SelectAllTemplates = "SELECT id, name, duration_minutes, description, category, created_at, updated_at FROM timer_templates"
)

type templateEntity struct {
	ID              string
	Name            string
	DurationMinutes int
	Description     string
	Category        string
	CreatedAt       int64
	UpdatedAt       int64
}

type templateRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewTemplateRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *templateRepo {
	return &templateRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *templateRepo) InsertTemplate(ctx context.Context, template powertimer.TemplateRecord) (powertimer.ExistingTemplateRecord, error) {
	db := r.dbGetter(ctx)
	e := mapToTemplateEntity(powertimer.ExistingTemplateRecord{
		TemplateRecord: template,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.TemplateID](uuid.NewString()),
	})

	args := []any{
		e.ID,
		e.Name,
		e.DurationMinutes,
		e.Description,
		e.Category,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO timer_templates (id, name, duration_minutes, description, category, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating template", "query", query, "args", args)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return powertimer.ExistingTemplateRecord{}, err
	}

	return mapToExistingTemplateRecord(e), nil
}

func (r *templateRepo) GetTemplate(ctx context.Context, id powertimer.TemplateID) (powertimer.ExistingTemplateRecord, error) {
	if id == "" {
		return powertimer.ExistingTemplateRecord{}, fmt.Errorf("provide id")
	}

	db := r.dbGetter(ctx)
	row := db.QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAllTemplates), id,
	)

	return extractTemplate(row)
}

func (r *templateRepo) GetTemplateByName(ctx context.Context, name string) (powertimer.ExistingTemplateRecord, error) {
	db := r.dbGetter(ctx)
	row := db.QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE name=? ORDER BY created_at LIMIT 1", SelectAllTemplates), name,
	)

	return extractTemplate(row)
}

func (r *templateRepo) GetAllTemplates(ctx context.Context) ([]powertimer.ExistingTemplateRecord, error) {
	db := r.dbGetter(ctx)
	query := SelectAllTemplates + " ORDER BY created_at, rowid"
	r.l.Debug("getting all templates", "query", query)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	templates := []powertimer.ExistingTemplateRecord{}
	for rows.Next() {
		template, err := extractTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func extractTemplate(s scannable) (powertimer.ExistingTemplateRecord, error) {
	var e templateEntity
	if err := s.Scan(&e.ID, &e.Name, &e.DurationMinutes, &e.Description, &e.Category, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return powertimer.ExistingTemplateRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingTemplateRecord{}, err
	}

	return mapToExistingTemplateRecord(e), nil
}

func mapToTemplateEntity(template powertimer.ExistingTemplateRecord) templateEntity {
	return templateEntity{
		ID:              string(template.ID),
		Name:            template.Name,
		DurationMinutes: template.DurationMinutes,
		Description:     template.Description,
		Category:        template.Category,
		CreatedAt:       toMillis(template.CreatedAt),
		UpdatedAt:       toMillis(template.UpdatedAt),
	}
}

func mapToExistingTemplateRecord(e templateEntity) powertimer.ExistingTemplateRecord {
	return powertimer.ExistingTemplateRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.TemplateID]{
			ID:        powertimer.TemplateID(e.ID),
			CreatedAt: fromMillis(e.CreatedAt),
			UpdatedAt: fromMillis(e.UpdatedAt),
		},
		TemplateRecord: powertimer.TemplateRecord{
			Name:            e.Name,
			DurationMinutes: e.DurationMinutes,
			Description:     e.Description,
			Category:        e.Category,
		},
	}
}
