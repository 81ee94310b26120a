package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourusername/travel-packages/internal/storage"
)

// MongoUserStore は users コレクションを使う UserStore です。
type MongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore は MongoUserStore を作成します。
func NewMongoUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll}
}

// EnsureIndexes は email と username の一意インデックスを作成します。
// 起動時に呼び出し、同時サインアップでの重複登録をストア側で防ぎます。
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
	})
	return storage.Wrap("create user indexes", err)
}

func (s *MongoUserStore) Create(ctx context.Context, u *User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return storage.Wrap("insert user", err)
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storage.Wrap("find user", err)
	}
	return &u, nil
}
