package powertimer

import "context"

type TemplateRecord struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Category        string `json:"category"`
}

type ExistingTemplateRecord struct {
	ExistingRecord[TemplateID]
	TemplateRecord
}

func (t TemplateRecord) Validate() error {
	if t.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if t.DurationMinutes < 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must not be negative"}
	}
	return nil
}

// DefaultTemplates are seeded by name; an existing template with the same name
// is left alone.
var DefaultTemplates = []TemplateRecord{
	{
		Name:            "Pomodoro Work",
		DurationMinutes: 25,
		Description:     "25-minute focused work session",
		Category:        "productivity",
	},
	{
		Name:            "Short Break",
		DurationMinutes: 5,
		Description:     "5-minute quick break",
		Category:        "break",
	},
	{
		Name:            "Long Break",
		DurationMinutes: 15,
		Description:     "15-minute relaxation break",
		Category:        "break",
	},
	{
		Name:            "Deep Work",
		DurationMinutes: 90,
		Description:     "90-minute deep focus session",
		Category:        "productivity",
	},
	{
		Name:            "Quick Task",
		DurationMinutes: 10,
		Description:     "10-minute quick task timer",
		Category:        "tasks",
	},
}

type TemplateRepo interface {
	InsertTemplate(context.Context, TemplateRecord) (ExistingTemplateRecord, error)
	GetTemplate(ctx context.Context, id TemplateID) (ExistingTemplateRecord, error)
	GetTemplateByName(ctx context.Context, name string) (ExistingTemplateRecord, error)
	GetAllTemplates(ctx context.Context) ([]ExistingTemplateRecord, error)
}
