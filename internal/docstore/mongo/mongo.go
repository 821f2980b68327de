// Package mongo implements docstore.Store on MongoDB. Each logical
// collection maps to a Mongo collection and the document id is stored as _id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/logger"
)

// ErrInvalidURI is returned for connection strings the driver cannot parse.
var ErrInvalidURI = errors.New("invalid MongoDB connection URI")

// ValidateURI parses uri without dialing.
func ValidateURI(uri string) error {
	if uri == "" {
		return fmt.Errorf("%w: connection URI cannot be empty", ErrInvalidURI)
	}
	if err := options.Client().ApplyURI(uri).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	return nil
}

type Store struct {
	client   *mongo.Client
	database *mongo.Database

	mu      sync.Mutex
	indexed map[string]bool
}

// Connect dials uri and pings the server before returning.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if dbName == "" {
		dbName = constants.DefaultMongoDatabase
	}
	logger.Info("Connected to MongoDB", "database", dbName)

	return &Store{
		client:   client,
		database: client.Database(dbName),
		indexed:  make(map[string]bool),
	}, nil
}

// collection returns the Mongo collection, creating the date index the first
// time it is used.
func (s *Store) collection(ctx context.Context, name string) *mongo.Collection {
	coll := s.database.Collection(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexed[name] {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: constants.FieldDate, Value: 1}},
			Options: options.Index().SetName("idx_date"),
		})
		if err != nil {
			logger.Warn("Failed to create date index", "collection", name, "error", err)
		} else {
			s.indexed[name] = true
		}
	}
	return coll
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.M
	err := s.collection(ctx, collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return toDocument(raw), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, doc docstore.Document, merge bool) error {
	body := bson.M{}
	for k, v := range doc {
		if k == "_id" || k == docstore.IDField {
			continue
		}
		body[k] = v
	}

	coll := s.collection(ctx, collection)
	var err error
	if merge {
		_, err = coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": body}, options.Update().SetUpsert(true))
	} else {
		_, err = coll.ReplaceOne(ctx, bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

// Subscribe watches a change stream filtered to one document. Change streams
// need a replica set; a standalone server fails here.
func (s *Store) Subscribe(ctx context.Context, collection, id string, fn func(docstore.Document)) (docstore.Subscription, error) {
	coll := s.collection(ctx, collection)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	stream, err := coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s/%s: %w", collection, id, err)
	}

	current, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		_ = stream.Close(context.Background())
		return nil, err
	}
	fn(current)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event struct {
				OperationType string `bson:"operationType"`
				FullDocument  bson.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				logger.Warn("Failed to decode change event", "collection", collection, "id", id, "error", err)
				continue
			}
			if event.OperationType == "delete" || event.FullDocument == nil {
				fn(nil)
				continue
			}
			fn(toDocument(event.FullDocument))
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logger.Warn("Change stream ended", "collection", collection, "id", id, "error", err)
		}
	}()

	return docstore.SubscriptionFunc(func() error {
		cancel()
		<-done
		return nil
	}), nil
}

func (s *Store) QueryRange(ctx context.Context, collection, field, start, end string) ([]docstore.Document, error) {
	filter := bson.M{field: bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: 1}})

	cursor, err := s.collection(ctx, collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	docs := make([]docstore.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toDocument converts a decoded BSON document into plain Go values and
// moves _id to the id field.
func toDocument(raw bson.M) docstore.Document {
	doc := docstore.Document(plain(raw).(map[string]any))
	if id, ok := doc["_id"]; ok {
		delete(doc, "_id")
		if s, ok := id.(string); ok {
			doc[docstore.IDField] = s
		} else {
			doc[docstore.IDField] = fmt.Sprint(id)
		}
	}
	return doc
}

// plain rewrites BSON container and scalar types into the JSON-like values
// the attendance decoder expects.
func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plainSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = plain(v)
	}
	return out
}
