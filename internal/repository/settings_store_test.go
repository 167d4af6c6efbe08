package repository

import (
	"context"
	"testing"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memoryCollection keeps documents in a map and understands the filter and
// $set shapes MongoSettingsStore sends
type memoryCollection struct {
	docs    map[string]bson.M
	upserts int
}

func newMemoryCollection() *memoryCollection {
	return &memoryCollection{docs: map[string]bson.M{}}
}

func (c *memoryCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	id := filter.(bson.M)["_id"].(string)
	doc, ok := c.docs[id]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (c *memoryCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	id := filter.(bson.M)["_id"].(string)
	doc, ok := c.docs[id]
	if !ok {
		doc = bson.M{"_id": id}
		for _, o := range opts {
			if o.Upsert != nil && *o.Upsert {
				c.upserts++
			}
		}
	}
	for k, v := range update.(bson.M)["$set"].(bson.M) {
		doc[k] = v
	}
	c.docs[id] = doc
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func TestMongoSettingsStore_StoresEmbeddedDocument(t *testing.T) {
	coll := newMemoryCollection()
	store := newMongoSettingsStore(coll)
	ctx := context.Background()

	body := `{"autoSyncEnabled":true,"syncIntervalMinutes":30,"lastSyncAt":"2026-01-02T03:04:05Z","tags":["a","b"]}`
	require.NoError(t, store.Put(ctx, domain.SettingsSync, []byte(body), "admin"))
	assert.Equal(t, 1, coll.upserts)

	stored := coll.docs[string(domain.SettingsSync)]
	data, ok := stored["data"].(bson.D)
	require.True(t, ok, "settings body should be a sub-document, got %T", stored["data"])
	assert.Equal(t, "autoSyncEnabled", data[0].Key)
	assert.Equal(t, true, data[0].Value)
	assert.Equal(t, "admin", stored["updatedBy"])

	got, err := store.Get(ctx, domain.SettingsSync)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(got))
}

func TestMongoSettingsStore_PutOverwrites(t *testing.T) {
	coll := newMemoryCollection()
	store := newMongoSettingsStore(coll)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.SettingsSLA, []byte(`{"a":1}`), "first"))
	require.NoError(t, store.Put(ctx, domain.SettingsSLA, []byte(`{"a":2}`), "second"))
	assert.Equal(t, 1, coll.upserts)

	got, err := store.Get(ctx, domain.SettingsSLA)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(got))
}

func TestMongoSettingsStore_Errors(t *testing.T) {
	store := newMongoSettingsStore(newMemoryCollection())
	ctx := context.Background()

	_, err := store.Get(ctx, domain.SettingsQuickReplies)
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	assert.Error(t, store.Put(ctx, domain.SettingsQuickReplies, []byte(`not json`), "admin"))
}
