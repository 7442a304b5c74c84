// Package cart holds the shopper's selected lines for the duration of a
// session. The store is an interface so a multi-instance deployment can back
// it with a shared store; the in-memory implementation is suitable for a
// single instance only.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/pricing"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Store is the session cart boundary used by handlers and the checkout
// service.
type Store interface {
	Get(ctx context.Context, sessionID string) (*models.Cart, error)
	AddLine(ctx context.Context, sessionID string, product *models.Product, variant *models.ProductVariant, quantity int) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, sessionID, lineID string) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore implements Store with an in-memory map keyed by session ID.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]models.CartLine
}

// NewMemoryStore creates an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]models.CartLine),
	}
}

// Get returns the cart for a session with derived subtotal and count. An
// unknown session yields an empty cart, not an error.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]models.CartLine, len(s.carts[sessionID]))
	copy(lines, s.carts[sessionID])

	return &models.Cart{
		SessionID: sessionID,
		Lines:     lines,
		Subtotal:  pricing.Subtotal(lines),
		Count:     count(lines),
	}, nil
}

// AddLine adds quantity of a product(+variant) to the session's cart. A line
// already holding the same product and variant is incremented instead of
// duplicated; two different variants of one product stay separate lines. The
// unit price is the product's sale price when on sale, else the base price.
func (s *MemoryStore) AddLine(ctx context.Context, sessionID string, product *models.Product, variant *models.ProductVariant, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	variantID := ""
	name := product.Name
	if variant != nil {
		variantID = variant.ID
		name = product.Name + " (" + variant.Label + ")"
	}

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ProductID == product.ID && lines[i].VariantID == variantID {
			lines[i].Quantity = clamp(lines[i].Quantity+quantity, lines[i].MaxQuantity)
			line := lines[i]
			return &line, nil
		}
	}

	line := models.CartLine{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		VariantID:   variantID,
		Name:        name,
		UnitPrice:   product.CurrentPrice(),
		Quantity:    clamp(quantity, product.MaxQuantity),
		MaxQuantity: product.MaxQuantity,
	}
	s.carts[sessionID] = append(lines, line)
	return &line, nil
}

// UpdateQuantity sets a line's quantity. A quantity below 1 removes the line,
// matching the storefront behavior where decrementing past one deletes it.
func (s *MemoryStore) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveLine(ctx, sessionID, lineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ID == lineID {
			lines[i].Quantity = clamp(quantity, lines[i].MaxQuantity)
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveLine deletes a line unconditionally.
func (s *MemoryStore) RemoveLine(ctx context.Context, sessionID, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ID == lineID {
			s.carts[sessionID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Clear drops the session's cart entirely.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

func count(lines []models.CartLine) int {
	n := 0
	for _, line := range lines {
		n += line.Quantity
	}
	return n
}

func clamp(quantity, max int) int {
	if max > 0 && quantity > max {
		return max
	}
	return quantity
}
