package catalog

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/travel-packages/internal/storage"
)

// MongoStore は packages コレクションを使うストアです。
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore は MongoStore を作成します。
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes は destination 検索用のインデックスを作成します。
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "destination", Value: 1}},
	})
	return storage.Wrap("create packages index", err)
}

func (s *MongoStore) FindByDestination(ctx context.Context, destination string) ([]Package, error) {
	cur, err := s.coll.Find(ctx, bson.M{"destination": destination})
	if err != nil {
		return nil, storage.Wrap("find packages", err)
	}
	defer cur.Close(ctx)

	out := make([]Package, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, storage.Wrap("decode packages", err)
	}
	if out == nil {
		out = []Package{}
	}
	return out, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Package, error) {
	var p Package
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("find package", err)
	}
	return &p, nil
}

func (s *MongoStore) UpsertPackages(ctx context.Context, pkgs []Package) error {
	if len(pkgs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(pkgs))
	for _, p := range pkgs {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(p).
			SetUpsert(true))
	}
	_, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return storage.Wrap("upsert packages", err)
}
