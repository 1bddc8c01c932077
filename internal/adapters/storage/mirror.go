package storage

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/campuspoll/internal/core/domain"
	"github.com/vncsmyrnk/campuspoll/internal/core/ports"
)

type mirror struct {
	stores []ports.TokenStore
}

// Mirror presents several stores as one. Loads read the first store holding
// a token; saves and clears hit every store.
func Mirror(stores ...ports.TokenStore) ports.TokenStore {
	return &mirror{stores: stores}
}

func (m *mirror) Load(ctx context.Context) (domain.Tokens, error) {
	var errs []error
	for _, s := range m.stores {
		tokens, err := s.Load(ctx)
		if err == nil && tokens.Valid() {
			return tokens, nil
		}
		if err != nil && !errors.Is(err, ErrNoTokens) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return domain.Tokens{}, errors.Join(errs...)
	}
	return domain.Tokens{}, ErrNoTokens
}

func (m *mirror) Save(ctx context.Context, tokens domain.Tokens) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Save(ctx, tokens); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *mirror) Clear(ctx context.Context) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
