package catalog

import (
	"context"
	"fmt"
)

// Service はパッケージの参照ユースケースです。キャッシュは持ちません。
type Service struct {
	store Store
}

// NewService は Service を作成します。
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListByDestination は destination に完全一致するパッケージを返します。
// 空文字や該当なしは空スライスです。
func (s *Service) ListByDestination(ctx context.Context, destination string) ([]Package, error) {
	if destination == "" {
		return []Package{}, nil
	}
	pkgs, err := s.store.FindByDestination(ctx, destination)
	if err != nil {
		return nil, fmt.Errorf("list packages by destination: %w", err)
	}
	out := make([]Package, len(pkgs))
	for i, p := range pkgs {
		out[i] = withEmptySlices(p)
	}
	return out, nil
}

// GetByID は ID に対応するパッケージを返します。
// ID の形式が不正なら ErrInvalidID、存在しなければ ErrNotFound です。
func (s *Service) GetByID(ctx context.Context, rawID string) (*Package, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get package %s: %w", rawID, err)
	}
	out := withEmptySlices(*p)
	return &out, nil
}
