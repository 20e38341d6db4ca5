package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DatabaseAcquirer hands out a database for a single operation.
type DatabaseAcquirer interface {
	Acquire(ctx context.Context) (*mongo.Database, func(context.Context), error)
}

type documentRecord struct {
	ID        bson.RawValue `bson:"_id"`
	Content   bson.RawValue `bson:"content"`
	CreatedAt bson.RawValue `bson:"createdAt"`
}

type newDocument struct {
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"createdAt"`
}

// DocumentsRepository stores plagiarism reference texts in a MongoDB collection.
// Every call acquires its own connection and releases it before returning.
type DocumentsRepository struct {
	acquirer   DatabaseAcquirer
	collection string
}

func NewDocumentsRepository(acquirer DatabaseAcquirer, collection string) *DocumentsRepository {
	return &DocumentsRepository{
		acquirer:   acquirer,
		collection: collection,
	}
}

func (r *DocumentsRepository) ListAll(ctx context.Context) ([]models.StoredDocument, error) {
	db, release, err := r.acquirer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	mongoRepo := NewMongoRepository(db)
	cursor, err := mongoRepo.FindMany(ctx, r.collection, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find documents: %w", models.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var records []documentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode documents: %w", models.ErrStoreUnavailable, err)
	}

	docs := make([]models.StoredDocument, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec.toModel())
	}

	log.Debug().
		Str("collection", r.collection).
		Int("documents", len(docs)).
		Msg("Loaded corpus")

	return docs, nil
}

func (r *DocumentsRepository) Insert(ctx context.Context, content string) (string, error) {
	db, release, err := r.acquirer.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release(ctx)

	mongoRepo := NewMongoRepository(db)
	res, err := mongoRepo.InsertOne(ctx, r.collection, newDocument{
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert document: %w", models.ErrStoreUnavailable, err)
	}

	return formatID(res.InsertedID), nil
}

func (rec documentRecord) toModel() models.StoredDocument {
	doc := models.StoredDocument{
		ID: rawToString(rec.ID),
	}

	if s, ok := rec.Content.StringValueOK(); ok {
		doc.Content = s
	} else if rec.Content.Type != 0 {
		doc.Content = rec.Content
	}

	if ms, ok := rec.CreatedAt.DateTimeOK(); ok {
		doc.CreatedAt = time.UnixMilli(ms).UTC()
	}

	return doc
}

func rawToString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if v.Type == 0 {
		return ""
	}
	return v.String()
}

func formatID(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
