package database

import (
	"context"
	"fmt"

	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// Models lists every persisted resource.
func Models() []model.Entity {
	return []model.Entity{
		&model.Vehicle{},
		&model.Driver{},
		&model.Task{},
		&model.Trip{},
		&model.User{},
	}
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := Models()
	dst := make([]interface{}, len(models))
	for i, m := range models {
		dst[i] = m
	}
	return db.AutoMigrate(dst...)
}

type mongoIndex struct {
	keys   bson.D
	unique bool
}

var mongoIndexes = map[string][]mongoIndex{
	"vehicles": {
		{keys: bson.D{{Key: "car_id", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "license_plate", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "project", Value: 1}}},
	},
	"drivers": {
		{keys: bson.D{{Key: "driver_id", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "vehicle_id", Value: 1}}},
	},
	"tasks": {
		{keys: bson.D{{Key: "car_id", Value: 1}}},
		{keys: bson.D{{Key: "driver_id", Value: 1}}},
		{keys: bson.D{{Key: "is_return", Value: 1}}},
	},
	"trips": {
		{keys: bson.D{{Key: "car_id", Value: 1}}},
		{keys: bson.D{{Key: "driver_id", Value: 1}}},
	},
	"users": {
		{keys: bson.D{{Key: "email", Value: 1}}, unique: true},
		{keys: bson.D{{Key: "username", Value: 1}}, unique: true},
	},
}

// EnsureMongoIndexes creates the unique and lookup indexes of every
// collection plus the (created_at, _id) index list queries sort on.
func EnsureMongoIndexes(ctx context.Context, m *MongoDB) error {
	for _, entity := range Models() {
		coll := entity.TableName()
		models := []mongo.IndexModel{{
			Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		}}
		for _, idx := range mongoIndexes[coll] {
			im := mongo.IndexModel{Keys: idx.keys}
			if idx.unique {
				im.Options = options.Index().SetUnique(true)
			}
			models = append(models, im)
		}
		if _, err := m.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
