package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/travel-packages/internal/apperr"
)

// ユーザーが存在しない場合も bcrypt の比較を 1 回行い、
// パスワード不一致の場合と応答時間が変わらないようにするためのハッシュです。
var dummyHash = mustHash("not-a-real-password", bcrypt.DefaultCost)

// Service はサインアップとログインのユースケースです。
type Service struct {
	users UserStore
	cost  int
	now   func() time.Time
}

// NewService は Service を作成します。cost は bcrypt のコストで、通常は bcrypt.DefaultCost (10) です。
func NewService(users UserStore, cost int) *Service {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost, now: time.Now}
}

// Signup はユーザーを登録します。セッションは作成しません。
// 重複チェックはストアの一意制約に任せ、事前検索は行いません。
func (s *Service) Signup(ctx context.Context, email, username, password string) (*User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, apperr.InvalidInput("email, username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.InvalidInput("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("signup %q: %w", username, err)
	}
	return user, nil
}

// Login はユーザー名とパスワードを検証します。
// ユーザーが存在しない場合もパスワード不一致の場合も ErrInvalidCredentials を返します。
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func mustHash(password string, cost int) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		panic(err)
	}
	return hash
}
