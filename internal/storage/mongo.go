// Package storage は MongoDB クライアントのライフサイクルと、
// ストア障害を表すエラーを提供します。
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yourusername/travel-packages/internal/apperr"
)

// コレクション名
const (
	UsersCollection    = "users"
	PackagesCollection = "packages"
	SessionsCollection = "sessions"
)

// ErrUnavailable はストアへの接続・クエリが失敗したことを表します。
// 一時的な障害であり、クライアント側での再試行を想定しています。
var ErrUnavailable = apperr.New(http.StatusInternalServerError, "BACKEND_UNAVAILABLE", "Something went wrong!")

// Wrap はドライバーのエラーに ErrUnavailable を付与します。
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Mongo は接続済みの MongoDB クライアントとデータベースを保持します。
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open は MongoDB に接続し、疎通を確認します。
// timeout はクライアント全体の操作タイムアウトとして設定されます。
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if database == "" {
		return nil, errors.New("mongo database name is empty")
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, Wrap("connect", err)
	}

	m := &Mongo{client: client, db: client.Database(database)}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// Ping はプライマリへの疎通を確認します。
func (m *Mongo) Ping(ctx context.Context) error {
	return Wrap("ping", m.client.Ping(ctx, readpref.Primary()))
}

// Collection はコレクションのハンドルを返します。
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Close は接続を閉じます。
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
