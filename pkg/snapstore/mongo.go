package snapstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvoltz/tether/pkg/errors"
)

// MongoStore persists snapshots in a MongoDB collection, one document
// per snapshot keyed by the snapshot ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB with the given URI and uses the
// "snapshots" collection of the named database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("snapshots"),
	}, nil
}

// Put upserts the snapshot document.
func (m *MongoStore) Put(ctx context.Context, s *Snapshot) error {
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": s.ID}, s,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "store snapshot %s", s.ID)
	}
	return nil
}

// Get retrieves a snapshot by ID.
func (m *MongoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var s Snapshot
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %s", id)
	}
	return &s, nil
}

// List returns metadata for all snapshots, newest first. The payload
// bytes stay on the server; only a size projection travels back.
func (m *MongoStore) List(ctx context.Context) ([]Info, error) {
	cur, err := m.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"name":       1,
			"format":     1,
			"created_at": 1,
			"size":       bson.M{"$binarySize": "$data"},
		}}},
		{{Key: "$sort", Value: bson.M{"created_at": -1}}},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var infos []Info
	for cur.Next(ctx) {
		var doc struct {
			ID        string    `bson:"_id"`
			Name      string    `bson:"name"`
			Format    string    `bson:"format"`
			Size      int       `bson:"size"`
			CreatedAt time.Time `bson:"created_at"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode listing")
		}
		infos = append(infos, Info{
			ID:        doc.ID,
			Name:      doc.Name,
			Format:    doc.Format,
			Size:      doc.Size,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	return infos, nil
}

// Delete removes a snapshot by ID.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return errNotFound(id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
