package targets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/teamdocs/notifier/pkg/notification"
)

// CollectionName is the mongo collection backing notification targets.
const CollectionName = "notificationtargets"

// MongoRepository implements Repository over a mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the repository to its collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Insert(ctx context.Context, target Target) (Target, error) {
	if _, err := r.coll.InsertOne(ctx, target); err != nil {
		return Target{}, fmt.Errorf("targets: insert: %w", err)
	}
	return target, nil
}

func (r *MongoRepository) FindForAccount(ctx context.Context, accountID string, filter Filter) ([]Target, error) {
	query := bson.M{"accountId": accountID}
	if filter.Kind != "" {
		query["notificationKind"] = filter.Kind
	}
	if len(filter.ItemIDs) > 0 {
		query["itemId"] = bson.M{"$in": filter.ItemIDs}
	}
	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("targets: find: %w", err)
	}
	var out []Target
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("targets: decode: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Delete(ctx context.Context, accountID, targetID string, kind notification.Kind, itemID *string) error {
	query := bson.M{
		"accountId":        accountID,
		"targetId":         targetID,
		"notificationKind": kind,
	}
	if itemID != nil {
		query["itemId"] = *itemID
	} else {
		query["itemId"] = bson.M{"$exists": false}
	}
	res, err := r.coll.DeleteOne(ctx, query)
	if err != nil {
		return fmt.Errorf("targets: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteAllForTarget(ctx context.Context, targetID string, accountID string) error {
	query := bson.M{"targetId": targetID}
	if accountID != "" {
		query["accountId"] = accountID
	}
	if _, err := r.coll.DeleteMany(ctx, query); err != nil {
		return fmt.Errorf("targets: delete for target: %w", err)
	}
	return nil
}

func (r *MongoRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"accountId": accountID}); err != nil {
		return fmt.Errorf("targets: delete for account: %w", err)
	}
	return nil
}

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Target
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, target Target) (Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, target)
	return target, nil
}

func (r *MemoryRepository) FindForAccount(_ context.Context, accountID string, filter Filter) ([]Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Target
	for _, t := range r.entries {
		if t.AccountID != accountID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if len(filter.ItemIDs) > 0 && (t.ItemID == nil || !slices.Contains(filter.ItemIDs, *t.ItemID)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, accountID, targetID string, kind notification.Kind, itemID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.entries {
		if t.AccountID != accountID || t.TargetID != targetID || t.Kind != kind {
			continue
		}
		if (t.ItemID == nil) != (itemID == nil) {
			continue
		}
		if t.ItemID != nil && *t.ItemID != *itemID {
			continue
		}
		r.entries = slices.Delete(r.entries, i, i+1)
		return nil
	}
	return ErrTargetNotFound
}

func (r *MemoryRepository) DeleteAllForTarget(_ context.Context, targetID string, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(t Target) bool {
		return t.TargetID == targetID && (accountID == "" || t.AccountID == accountID)
	})
	return nil
}

func (r *MemoryRepository) DeleteAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = slices.DeleteFunc(r.entries, func(t Target) bool {
		return t.AccountID == accountID
	})
	return nil
}
