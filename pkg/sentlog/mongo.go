package sentlog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionName is the mongo collection backing the send log.
const CollectionName = "sentnotifications"

// MongoRepository implements Repository over a mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the repository to its collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Insert(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("sentlog: insert: %w", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, accountID string, itemIDs []string) ([]Record, error) {
	filter := bson.M{
		"accountId":                   accountID,
		"notificationMetadata.itemId": bson.M{"$in": itemIDs},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("sentlog: find: %w", err)
	}
	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("sentlog: decode: %w", err)
	}
	return records, nil
}

func (r *MongoRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"accountId": accountID}); err != nil {
		return fmt.Errorf("sentlog: delete for account: %w", err)
	}
	return nil
}

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRepository creates an empty in-memory send log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.records = append(r.records, record)
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, accountID string, itemIDs []string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, record := range r.records {
		if record.AccountID == accountID && slices.Contains(itemIDs, record.Metadata.ItemID) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = slices.DeleteFunc(r.records, func(record Record) bool {
		return record.AccountID == accountID
	})
	return nil
}

// All returns every stored record. Test hook.
func (r *MemoryRepository) All() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}
