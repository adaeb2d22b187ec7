package models

import "time"

// Product is a purchasable item from the storefront catalog.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Weight      *float64 `json:"weight,omitempty"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
}

// Testimonial is a customer review shown on the storefront.
type Testimonial struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminAccount is a back-office account as returned by the admin listing.
type AdminAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
