package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSettingsNotFound is returned when no document is stored for a key
var ErrSettingsNotFound = errors.New("settings document not found")

// SettingsStore persists singleton settings documents as raw JSON
type SettingsStore interface {
	Get(ctx context.Context, key domain.SettingsKey) ([]byte, error)
	Put(ctx context.Context, key domain.SettingsKey, data []byte, updatedBy string) error
}

// GormSettingsStore keeps settings in the settings_documents table
type GormSettingsStore struct {
	db *gorm.DB
}

func NewGormSettingsStore(db *gorm.DB) *GormSettingsStore {
	return &GormSettingsStore{db: db}
}

func (s *GormSettingsStore) Get(ctx context.Context, key domain.SettingsKey) ([]byte, error) {
	var doc domain.SettingsDocument
	err := s.db.WithContext(ctx).First(&doc, "key = ?", string(key)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return []byte(doc.Data), nil
}

func (s *GormSettingsStore) Put(ctx context.Context, key domain.SettingsKey, data []byte, updatedBy string) error {
	doc := domain.SettingsDocument{
		Key:       string(key),
		Data:      string(data),
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_by", "updated_at"}),
		}).
		Create(&doc).Error
}

// SettingsCollection is the MongoDB collection holding settings documents
const SettingsCollection = "settings"

// settingsCollection is the subset of *mongo.Collection the store uses
type settingsCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type mongoSettingsDocument struct {
	Key       string    `bson:"_id"`
	Data      bson.D    `bson:"data"`
	UpdatedBy string    `bson:"updatedBy"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoSettingsStore keeps settings in a MongoDB collection keyed by _id.
// The settings body is stored as an embedded document so it can be queried.
type MongoSettingsStore struct {
	collection settingsCollection
}

// NewMongoSettingsStore stores settings in the settings collection of db
func NewMongoSettingsStore(db *mongo.Database) *MongoSettingsStore {
	return &MongoSettingsStore{collection: db.Collection(SettingsCollection)}
}

func newMongoSettingsStore(collection settingsCollection) *MongoSettingsStore {
	return &MongoSettingsStore{collection: collection}
}

func (s *MongoSettingsStore) Get(ctx context.Context, key domain.SettingsKey) ([]byte, error) {
	var doc mongoSettingsDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": string(key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", key, err)
	}
	if doc.Data == nil {
		return []byte("{}"), nil
	}
	data, err := bson.MarshalExtJSON(doc.Data, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings %s: %w", key, err)
	}
	return data, nil
}

func (s *MongoSettingsStore) Put(ctx context.Context, key domain.SettingsKey, data []byte, updatedBy string) error {
	var body bson.D
	if err := bson.UnmarshalExtJSON(data, false, &body); err != nil {
		return fmt.Errorf("settings %s is not a JSON object: %w", key, err)
	}
	update := bson.M{"$set": bson.M{
		"data":      body,
		"updatedBy": updatedBy,
		"updatedAt": time.Now().UTC(),
	}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": string(key)}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write settings %s: %w", key, err)
	}
	return nil
}
