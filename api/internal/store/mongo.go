package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"trackgen/api/internal/track"
)

// MongoRepo keeps each track as one document whose _id equals its id.
type MongoRepo struct {
	client *mongo.Client
	col    *mongo.Collection
}

func NewMongoRepo(ctx context.Context, uri, database, collection string, log *zap.Logger) (*MongoRepo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(50).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Warn("could not verify MongoDB connection", zap.Error(err))
	} else {
		log.Info("connected to MongoDB", zap.String("database", database), zap.String("collection", collection))
	}

	return &MongoRepo{
		client: client,
		col:    client.Database(database).Collection(collection),
	}, nil
}

func (r *MongoRepo) Insert(ctx context.Context, t track.Track) error {
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		return err
	}
	return nil
}

// List returns tracks oldest first.
func (r *MongoRepo) List(ctx context.Context) ([]track.Track, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []track.Track{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (track.Track, error) {
	var t track.Track
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return track.Track{}, ErrNotFound
	}
	if err != nil {
		return track.Track{}, err
	}
	return t, nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
