// Package catalog fetches products and testimonials from the remote
// storefront and caches them until the cache is invalidated.
package catalog

import (
	"context"
	"sync"

	"brewcart/internal/models"
)

// API is the slice of the remote client the catalog needs.
type API interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListTestimonials(ctx context.Context) ([]models.Testimonial, error)
}

type Service struct {
	api API

	mu           sync.Mutex
	products     []models.Product
	testimonials []models.Testimonial
	hasProducts  bool
	hasQuotes    bool
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Products returns the cached product list, fetching it once on demand.
// A fetch failure leaves the cache empty so the next call retries.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	if s.hasProducts {
		cached := make([]models.Product, len(s.products))
		copy(cached, s.products)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.products = products
	s.hasProducts = true
	s.mu.Unlock()

	out := make([]models.Product, len(products))
	copy(out, products)
	return out, nil
}

// Product returns a single product, served from the cached list when
// present and fetched directly otherwise.
func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	if s.hasProducts {
		for _, p := range s.products {
			if p.ID == id {
				found := p
				s.mu.Unlock()
				return &found, nil
			}
		}
	}
	s.mu.Unlock()

	return s.api.GetProduct(ctx, id)
}

// Testimonials returns the cached testimonial list, fetching it once on
// demand.
func (s *Service) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	s.mu.Lock()
	if s.hasQuotes {
		cached := make([]models.Testimonial, len(s.testimonials))
		copy(cached, s.testimonials)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	quotes, err := s.api.ListTestimonials(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.testimonials = quotes
	s.hasQuotes = true
	s.mu.Unlock()

	out := make([]models.Testimonial, len(quotes))
	copy(out, quotes)
	return out, nil
}

// Invalidate drops all cached data. Registered as a session clear hook
// so stale content never survives a sign-out.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.testimonials = nil
	s.hasProducts = false
	s.hasQuotes = false
}
