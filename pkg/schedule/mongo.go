package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionName is the mongo collection backing scheduled events.
const CollectionName = "scheduledevents"

// MongoRepository implements Repository over a mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository binds the repository to its collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

func (r *MongoRepository) Insert(ctx context.Context, event Event) (Event, error) {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return Event{}, fmt.Errorf("schedule: insert: %w", err)
	}
	return event, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Event, error) {
	var event Event
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Event{}, ErrEventNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("schedule: get: %w", err)
	}
	return event, nil
}

func (r *MongoRepository) Find(ctx context.Context, filter Filter) ([]Event, error) {
	query := bson.M{}
	if filter.AccountID != "" {
		query["accountId"] = filter.AccountID
	}
	if filter.ItemID != "" {
		query["notification.itemId"] = filter.ItemID
	}
	if filter.Kind != "" {
		query["kind"] = filter.Kind
	}
	if filter.SendAtBefore != nil {
		query["sendAt"] = bson.M{"$lte": *filter.SendAtBefore}
	}
	if filter.ClaimedBefore != nil {
		query["claimedAt"] = bson.M{"$lte": *filter.ClaimedBefore}
	}
	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schedule: find: %w", err)
	}
	var out []Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("schedule: decode: %w", err)
	}
	return out, nil
}

// Claim is the single conditional update deciding which sweep dispatches
// the record: only the update that still sees claimedAt null wins.
func (r *MongoRepository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "claimedAt": nil},
		bson.M{"$set": bson.M{"claimedAt": r.now()}},
	)
	if err != nil {
		return false, fmt.Errorf("schedule: claim: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoRepository) Unclaim(ctx context.Context, id string) error {
	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"claimedAt": nil}},
	); err != nil {
		return fmt.Errorf("schedule: unclaim: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("schedule: delete: %w", err)
	}
	return nil
}

func (r *MongoRepository) Put(ctx context.Context, event Event) error {
	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": event.ID, "claimedAt": nil},
		event,
	)
	if err != nil {
		return fmt.Errorf("schedule: put: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish missing from claimed for the caller.
		if _, getErr := r.GetByID(ctx, event.ID); getErr != nil {
			return getErr
		}
		return ErrEventClaimed
	}
	return nil
}

func (r *MongoRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"accountId": accountID}); err != nil {
		return fmt.Errorf("schedule: delete for account: %w", err)
	}
	return nil
}
