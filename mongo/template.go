package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/benjamonnguyen/powertimer"
)

type templateDocument struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	DurationMinutes int       `bson:"duration_minutes"`
	Description     string    `bson:"description"`
	Category        string    `bson:"category"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

type templateRepo struct {
	coll *mongo.Collection
	l    *log.Logger
}

func (r *templateRepo) InsertTemplate(ctx context.Context, template powertimer.TemplateRecord) (powertimer.ExistingTemplateRecord, error) {
	doc := mapToTemplateDocument(powertimer.ExistingTemplateRecord{
		TemplateRecord: template,
		ExistingRecord: powertimer.NewExistingRecord[powertimer.TemplateID](uuid.NewString()),
	})
	r.l.Debug("creating template", "id", doc.ID, "name", doc.Name)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return powertimer.ExistingTemplateRecord{}, err
	}
	return mapToExistingTemplateRecord(doc), nil
}

func (r *templateRepo) GetTemplate(ctx context.Context, id powertimer.TemplateID) (powertimer.ExistingTemplateRecord, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *templateRepo) GetTemplateByName(ctx context.Context, name string) (powertimer.ExistingTemplateRecord, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *templateRepo) findOne(ctx context.Context, filter bson.M) (powertimer.ExistingTemplateRecord, error) {
	var doc templateDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return powertimer.ExistingTemplateRecord{}, powertimer.ErrNotFound
		}
		return powertimer.ExistingTemplateRecord{}, err
	}
	return mapToExistingTemplateRecord(doc), nil
}

func (r *templateRepo) GetAllTemplates(ctx context.Context) ([]powertimer.ExistingTemplateRecord, error) {
	r.l.Debug("getting all templates")
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []templateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	templates := make([]powertimer.ExistingTemplateRecord, 0, len(docs))
	for _, doc := range docs {
		templates = append(templates, mapToExistingTemplateRecord(doc))
	}
	return templates, nil
}

func mapToTemplateDocument(template powertimer.ExistingTemplateRecord) templateDocument {
	return templateDocument{
		ID:              string(template.ID),
		Name:            template.Name,
		DurationMinutes: template.DurationMinutes,
		Description:     template.Description,
		Category:        template.Category,
		CreatedAt:       utc(template.CreatedAt),
		UpdatedAt:       utc(template.UpdatedAt),
	}
}

func mapToExistingTemplateRecord(doc templateDocument) powertimer.ExistingTemplateRecord {
	return powertimer.ExistingTemplateRecord{
		ExistingRecord: powertimer.ExistingRecord[powertimer.TemplateID]{
			ID:        powertimer.TemplateID(doc.ID),
			CreatedAt: utc(doc.CreatedAt),
			UpdatedAt: utc(doc.UpdatedAt),
		},
		TemplateRecord: powertimer.TemplateRecord{
			Name:            doc.Name,
			DurationMinutes: doc.DurationMinutes,
			Description:     doc.Description,
			Category:        doc.Category,
		},
	}
}
