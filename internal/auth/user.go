package auth

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User は登録ユーザーです。PasswordHash は bcrypt ハッシュで、JSON には出しません。
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserStore はユーザーの永続化を担います。
//
// email と username の一意性はストア側の制約で保証します。
// Create は重複時に ErrConflict を返す必要があります。
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// MemoryUserStore はメモリ上の UserStore です。並行利用に対して安全です。
type MemoryUserStore struct {
	mu         sync.RWMutex
	byUsername map[string]User
	emails     map[string]struct{}
}

// NewMemoryUserStore は MemoryUserStore を作成します。
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byUsername: make(map[string]User),
		emails:     make(map[string]struct{}),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, u *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[u.Username]; ok {
		return ErrConflict
	}
	if _, ok := s.emails[u.Email]; ok {
		return ErrConflict
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.byUsername[u.Username] = *u
	s.emails[u.Email] = struct{}{}
	return nil
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
