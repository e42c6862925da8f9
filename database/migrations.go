package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// RunMigrations runs AutoMigrate for the relational models inside a transaction.
func RunMigrations(db *gorm.DB, models ...interface{}) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.AutoMigrate(models...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// mongoIndexes backs the equality + order-by queries the pipeline and the
// dashboard issue.
var mongoIndexes = map[string][]mongo.IndexModel{
	"user_locations": {
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	"messages": {
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "role", Value: 1}, {Key: "created_at", Value: -1}}},
	},
	"magicWordUser": {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "matchedAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
	},
	"historical_sites": {
		{Keys: bson.D{{Key: "site_name", Value: 1}, {Key: "is_active", Value: 1}}},
	},
	"trivia": {
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "is_active", Value: 1}}},
	},
	"knowledge_base": {
		{Keys: bson.D{{Key: "chat_type", Value: 1}, {Key: "param", Value: 1}}},
	},
	"serviceOrder": {
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
	"order": {
		{Keys: bson.D{{Key: "uid", Value: 1}, {Key: "paymentStatus", Value: 1}}},
	},
}

// EnsureMongoIndexes creates the secondary indexes. CreateMany is a no-op for
// indexes that already exist.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range mongoIndexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
