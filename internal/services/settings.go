package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"masarify/internal/core"
	"masarify/internal/log"
	"masarify/internal/persistence"
)

// CategoryInput describes a new or edited category.
type CategoryInput struct {
	NameEn      string               `json:"nameEn"`
	NameAr      string               `json:"nameAr"`
	Icon        string               `json:"icon"`
	Color       string               `json:"color"`
	Type        core.TransactionType `json:"type"`
	BudgetLimit *core.Money          `json:"budgetLimit,omitempty"`
}

func (in CategoryInput) build(id string) (core.Category, error) {
	c := core.Category{
		ID:          id,
		NameEn:      strings.TrimSpace(in.NameEn),
		NameAr:      strings.TrimSpace(in.NameAr),
		Icon:        core.IconOrDefault(strings.TrimSpace(in.Icon)),
		Color:       strings.TrimSpace(in.Color),
		Type:        in.Type,
		BudgetLimit: in.BudgetLimit,
	}
	if c.NameAr == "" {
		c.NameAr = c.NameEn
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return c, nil
}

func (s *BudgetService) AddCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	c, err := in.build(uuid.NewString())
	if err != nil {
		return core.Category{}, err
	}
	_, err = s.mutate(ctx, log.OpCreate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		out.Categories = append(out.Categories, c)
		return out, nil
	})
	return c, err
}

func (s *BudgetService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (core.Category, error) {
	c, err := in.build(id)
	if err != nil {
		return core.Category{}, err
	}
	_, err = s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		i := slices.IndexFunc(st.Categories, func(x core.Category) bool { return x.ID == id })
		if i < 0 {
			return st, ErrCategoryNotFound
		}
		out := st.Clone()
		out.Categories[i] = c
		return out, nil
	})
	return c, err
}

// DeleteCategory refuses while transactions still reference the category.
func (s *BudgetService) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, log.OpDelete, func(st core.AppState) (core.AppState, error) {
		if _, ok := core.FindCategory(st.Categories, id); !ok {
			return st, ErrCategoryNotFound
		}
		return persistence.DeleteCategory(st, id)
	})
	return err
}

// SaveSettings replaces the budget configuration. A nil pin leaves the PIN
// alone and an empty one removes it.
func (s *BudgetService) SaveSettings(ctx context.Context, budget core.BudgetConfig, pin *string) error {
	if err := budget.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var hashed *string
	if pin != nil && *pin != "" {
		if len(*pin) < 4 {
			return fmt.Errorf("%w: pin must have at least 4 digits", ErrValidation)
		}
		h, err := HashPin(*pin)
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		hashed = &h
	}
	_, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		out.Budget = budget
		if pin != nil {
			out.Pin = hashed
			out.IsAuthenticated = true
		}
		return out, nil
	})
	return err
}

func (s *BudgetService) SetLanguage(ctx context.Context, lang core.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %w", ErrValidation, core.ErrInvalidLanguage)
	}
	_, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		out.Language = lang
		return out, nil
	})
	return err
}

// SetCurrency switches to a supported currency; locked once transactions exist.
func (s *BudgetService) SetCurrency(ctx context.Context, code string) (core.Currency, error) {
	cur, ok := core.CurrencyByCode(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return core.Currency{}, persistence.ErrUnknownCurrency
	}
	_, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		return persistence.SetCurrency(st, cur)
	})
	return cur, err
}

// Unlock authenticates with the PIN. Without a PIN it always succeeds.
// A PIN stored in clear by an older backup is replaced by its hash.
func (s *BudgetService) Unlock(ctx context.Context, pin string) error {
	_, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		if !st.HasPin() {
			out.IsAuthenticated = true
			return out, nil
		}
		ok, legacy := VerifyPin(*st.Pin, pin)
		if !ok {
			return st, ErrInvalidPin
		}
		if legacy {
			h, err := HashPin(pin)
			if err != nil {
				return st, fmt.Errorf("hash pin: %w", err)
			}
			out.Pin = &h
		}
		out.IsAuthenticated = true
		return out, nil
	})
	if errors.Is(err, ErrInvalidPin) {
		s.logger.WarnContext(ctx, "Unlock rejected")
	}
	return err
}

// Lock requires the PIN again. It is a no-op without a PIN.
func (s *BudgetService) Lock(ctx context.Context) error {
	_, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		out.IsAuthenticated = !st.HasPin()
		return out, nil
	})
	return err
}
