// Package cart keeps the shopper's basket in memory and mirrors every
// mutation into local storage so the basket survives restarts.
package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"brewcart/internal/localstore"
	"brewcart/internal/models"
)

// Store holds the current basket. All mutations persist before they are
// visible, so memory and local storage never disagree.
type Store struct {
	local *localstore.Store

	mu    sync.Mutex
	items []models.CartItem
}

func NewStore(local *localstore.Store) *Store {
	return &Store{local: local}
}

// Load restores the basket from local storage. A missing or corrupt
// entry yields an empty basket rather than an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.local.Get(localstore.KeyCart)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if !ok {
		s.items = nil
		return nil
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.items = nil
		return nil
	}
	s.items = items
	return nil
}

// Add puts quantity units of the product into the basket. A quantity
// below 1 is treated as 1. Adding a product that is already present
// increments its line instead of creating a second one.
func (s *Store) Add(product models.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			return s.setQuantityLocked(i, s.items[i].Quantity+quantity)
		}
	}

	next := append(cloneItems(s.items), models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  quantity,
		Weight:    product.Weight,
		Image:     product.Image,
	})
	return s.commit(next)
}

// SetQuantity replaces the quantity of a line. A quantity of zero or
// below removes the line entirely.
func (s *Store) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			return s.setQuantityLocked(i, quantity)
		}
	}
	return nil
}

func (s *Store) setQuantityLocked(index, quantity int) error {
	next := cloneItems(s.items)
	if quantity <= 0 {
		next = append(next[:index], next[index+1:]...)
	} else {
		next[index].Quantity = quantity
	}
	return s.commit(next)
}

// Remove drops a line from the basket regardless of quantity.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			return s.setQuantityLocked(i, 0)
		}
	}
	return nil
}

// Clear empties the basket.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.local.Delete(localstore.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.items = nil
	return nil
}

// Items returns a copy of the current basket lines.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// TotalCount is the number of units across all lines. It is recomputed
// on every call rather than cached.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// TotalPrice is the sum of every line's subtotal, recomputed per call.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

// Reset clears both memory and local storage. Used by tests.
func (s *Store) Reset() error {
	return s.Clear()
}

// commit persists the candidate basket and only then swaps it in.
func (s *Store) commit(next []models.CartItem) error {
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.local.Set(localstore.KeyCart, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.items = next
	return nil
}

func cloneItems(items []models.CartItem) []models.CartItem {
	if items == nil {
		return nil
	}
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out
}
