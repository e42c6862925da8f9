package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter Filter, opts FindOptions, out any) error {
	findOpts := options.Find()
	if opts.SortField != "" {
		dir := 1
		if opts.SortDesc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortField, Value: dir}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, mongoFilter(filter), findOpts)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, collection, id string, doc any) error {
	fields, err := toDocument(doc)
	if err != nil {
		return err
	}
	delete(fields, "_id")

	_, err = s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, doc any) error {
	fields, err := toDocument(doc)
	if err != nil {
		return err
	}
	fields["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, fields); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func mongoFilter(f Filter) bson.M {
	out := bson.M{}
	for k, v := range f {
		if in, ok := v.(In); ok {
			out[k] = bson.M{"$in": []any(in)}
			continue
		}
		out[k] = v
	}
	return out
}

// toDocument round-trips v through BSON so struct tags decide field names.
func toDocument(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return m, nil
}
