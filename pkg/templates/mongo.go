package templates

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionName is the mongo collection backing notification templates.
const CollectionName = "notificationtemplates"

// MongoRepository implements Repository over a mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the repository to its collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Insert(ctx context.Context, template Template) (Template, error) {
	if _, err := r.coll.InsertOne(ctx, template); err != nil {
		return Template{}, fmt.Errorf("templates: insert: %w", err)
	}
	return template, nil
}

func (r *MongoRepository) AllForAccount(ctx context.Context, accountID string) ([]Template, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"accountId": accountID})
	if err != nil {
		return nil, fmt.Errorf("templates: find: %w", err)
	}
	var out []Template
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("templates: decode: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Delete(ctx context.Context, templateID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"templateId": templateID})
	if err != nil {
		return fmt.Errorf("templates: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"accountId": accountID}); err != nil {
		return fmt.Errorf("templates: delete for account: %w", err)
	}
	return nil
}

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]Template
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]Template)}
}

func (r *MemoryRepository) Insert(_ context.Context, template Template) (Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[template.ID] = template
	return template, nil
}

func (r *MemoryRepository) AllForAccount(_ context.Context, accountID string) ([]Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Template
	for _, t := range r.entries {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[templateID]; !ok {
		return ErrTemplateNotFound
	}
	delete(r.entries, templateID)
	return nil
}

func (r *MemoryRepository) DeleteAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.entries {
		if t.AccountID == accountID {
			delete(r.entries, id)
		}
	}
	return nil
}
