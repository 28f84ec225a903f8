package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionName is the mongo collection backing alerts.
const CollectionName = "alerts"

// MongoRepository implements Repository over a mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the repository to its collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Insert(ctx context.Context, alert Alert) (Alert, error) {
	if _, err := r.coll.InsertOne(ctx, alert); err != nil {
		return Alert{}, fmt.Errorf("alerts: insert: %w", err)
	}
	return alert, nil
}

func (r *MongoRepository) Put(ctx context.Context, alert Alert) (Alert, error) {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"alertId": alert.ID}, alert)
	if err != nil {
		return Alert{}, fmt.Errorf("alerts: put: %w", err)
	}
	if res.MatchedCount == 0 {
		return Alert{}, ErrAlertNotFound
	}
	return alert, nil
}

func (r *MongoRepository) Get(ctx context.Context, alertID string) (Alert, error) {
	var alert Alert
	err := r.coll.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&alert)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Alert{}, ErrAlertNotFound
	}
	if err != nil {
		return Alert{}, fmt.Errorf("alerts: get: %w", err)
	}
	return alert, nil
}

func (r *MongoRepository) Delete(ctx context.Context, alertID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"alertId": alertID})
	if err != nil {
		return fmt.Errorf("alerts: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (r *MongoRepository) ActiveForAccount(ctx context.Context, accountID string, now time.Time) ([]Alert, error) {
	query := bson.M{
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"accountIds": accountID},
				bson.M{"accountIds": bson.M{"$size": 0}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"startDate": bson.M{"$exists": false}},
				bson.M{"startDate": bson.M{"$lte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"endDate": bson.M{"$exists": false}},
				bson.M{"endDate": bson.M{"$gte": now}},
			}},
		},
	}
	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("alerts: find active: %w", err)
	}
	var out []Alert
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("alerts: decode: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) All(ctx context.Context) ([]Alert, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("alerts: find all: %w", err)
	}
	var out []Alert
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("alerts: decode: %w", err)
	}
	return out, nil
}
