package api

import (
	"context"

	"brewcart/internal/models"
)

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.get(ctx, "/products/"+id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListTestimonials fetches customer testimonials.
func (c *Client) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	var testimonials []models.Testimonial
	if err := c.get(ctx, "/testimonials", &testimonials); err != nil {
		return nil, err
	}
	return testimonials, nil
}
