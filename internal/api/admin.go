package api

import (
	"context"

	"brewcart/internal/models"
)

// ProductInput is the mutable portion of a product record.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Weight      *float64 `json:"weight,omitempty"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
}

// CreateProduct adds a product to the catalog. Requires content-admin role.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.post(ctx, "/admin/products", input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces a product's mutable fields.
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.put(ctx, "/admin/products/"+id, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.delete(ctx, "/admin/products/"+id)
}

// TestimonialInput is the mutable portion of a testimonial.
type TestimonialInput struct {
	Author string `json:"author"`
	Quote  string `json:"quote"`
	Rating int    `json:"rating"`
}

// CreateTestimonial publishes a testimonial.
func (c *Client) CreateTestimonial(ctx context.Context, input TestimonialInput) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	if err := c.post(ctx, "/admin/testimonials", input, &testimonial); err != nil {
		return nil, err
	}
	return &testimonial, nil
}

// DeleteTestimonial removes a testimonial.
func (c *Client) DeleteTestimonial(ctx context.Context, id string) error {
	return c.delete(ctx, "/admin/testimonials/"+id)
}

// AdminInput creates a back-office account. Requires super-admin role.
type AdminInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// ListAdmins returns all back-office accounts.
func (c *Client) ListAdmins(ctx context.Context) ([]models.AdminAccount, error) {
	var admins []models.AdminAccount
	if err := c.get(ctx, "/admin/users", &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// CreateAdmin creates a back-office account.
func (c *Client) CreateAdmin(ctx context.Context, input AdminInput) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	if err := c.post(ctx, "/admin/users", input, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// DeleteAdmin removes a back-office account.
func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	return c.delete(ctx, "/admin/users/"+id)
}
