package catalog

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store はパッケージの参照系ストアです。
type Store interface {
	// FindByDestination は destination が完全一致（大文字小文字を区別）するパッケージを
	// ストアの順序で返します。該当なしは空スライスで、エラーにはしません。
	FindByDestination(ctx context.Context, destination string) ([]Package, error)
	// FindByID は該当パッケージを返します。存在しない場合は ErrNotFound です。
	FindByID(ctx context.Context, id primitive.ObjectID) (*Package, error)
}

// Importer はインポートジョブがパッケージを書き込むためのインターフェースです。
// ID をキーに置き換え（なければ作成）するため、同じ入力で再実行しても件数は増えません。
type Importer interface {
	UpsertPackages(ctx context.Context, pkgs []Package) error
}

// MemoryStore はメモリ上のパッケージストアです。挿入順を保持します。
// 並行利用に対して安全です。
type MemoryStore struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	byID  map[primitive.ObjectID]Package
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[primitive.ObjectID]Package)}
}

func (s *MemoryStore) FindByDestination(ctx context.Context, destination string) ([]Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Package, 0)
	for _, id := range s.order {
		p := s.byID[id]
		if p.Destination == destination {
			out = append(out, clonePackage(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clonePackage(p)
	return &out, nil
}

func (s *MemoryStore) UpsertPackages(ctx context.Context, pkgs []Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pkgs {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		if _, exists := s.byID[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = clonePackage(p)
	}
	return nil
}

// Len は保持しているパッケージ数を返します。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
