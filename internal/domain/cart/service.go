package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Service implements the cart operations, all scoped to a single user's cart.
type Service struct {
	repo Repository
}

// NewService creates a cart Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	if err := s.repo.Ensure(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "ensure cart")
	}
	return s.load(ctx, userID)
}

// Add merges qty into an existing line item for the product, or appends a new
// line. The cart is created on demand. Repeated adds accumulate quantity.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := s.repo.Ensure(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "ensure cart")
	}
	if err := s.repo.AddQuantity(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// Update sets a line item's quantity exactly; a quantity of zero or less
// removes the line. Fails with ErrNotFound when the user has no cart and
// ErrItemNotFound when the product is not in it.
func (s *Service) Update(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if err := s.requireCart(ctx, userID); err != nil {
		return nil, err
	}

	var (
		found bool
		err   error
	)
	if qty <= 0 {
		found, err = s.repo.DeleteItem(ctx, userID, productID)
	} else {
		found, err = s.repo.SetQuantity(ctx, userID, productID, qty)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrItemNotFound
	}
	return s.load(ctx, userID)
}

// Remove deletes a line item unconditionally; removing an absent line is not
// an error. Fails with ErrNotFound when the user has no cart.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*Cart, error) {
	if err := s.requireCart(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.repo.DeleteItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *Service) requireCart(ctx context.Context, userID string) error {
	ok, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "check cart")
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (*Cart, error) {
	items, err := s.repo.Items(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart items")
	}
	return &Cart{UserID: userID, Items: items}, nil
}
