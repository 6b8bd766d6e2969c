package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/handmade-storefront/internal/apperr"
	"github.com/Lixing-Zhang/handmade-storefront/internal/cart"
	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
	"github.com/Lixing-Zhang/handmade-storefront/internal/pricing"
	"github.com/Lixing-Zhang/handmade-storefront/internal/repository"
)

// CartView is a cart with its price preview.
type CartView struct {
	Items        []models.CartItem `json:"items"`
	ItemCount    int               `json:"itemCount"`
	CODAvailable bool              `json:"codAvailable"`
	Totals       pricing.Totals    `json:"totals"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// CartService keeps the server-side cart of signed-in customers.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	log      *slog.Logger
	now      func() time.Time
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, log *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		log:      log,
		now:      time.Now,
	}
}

func (s *CartService) Get(ctx context.Context, userID string) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// AddItem snapshots the product and adds it to the cart.
func (s *CartService) AddItem(ctx context.Context, userID string, req models.AddCartItemRequest) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	want := req.Quantity
	for _, it := range c.Items {
		if it.ID == p.ID {
			want += it.Quantity
		}
	}
	if err := checkStock(p, want); err != nil {
		return nil, err
	}

	c.Items = cart.Add(c.Items, snapshot(p, req.Quantity))
	return s.save(ctx, c)
}

// SetQuantity sets a line's quantity, removing it at zero. A changed
// quantity also refreshes the line's price snapshot.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity > 0 {
		p, err := s.product(ctx, productID)
		if err != nil {
			return nil, err
		}
		if err := checkStock(p, quantity); err != nil {
			return nil, err
		}
		c.Items = cart.Refresh(c.Items, snapshot(p, quantity))
	}

	c.Items = cart.SetQuantity(c.Items, productID, quantity)
	return s.save(ctx, c)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Items = cart.Remove(c.Items, productID)
	return s.save(ctx, c)
}

func (s *CartService) Clear(ctx context.Context, userID string) (*CartView, error) {
	c := &models.Cart{UserID: userID, Items: cart.Clear()}
	return s.save(ctx, c)
}

// Merge folds a guest cart into the user's cart on sign-in. Guest lines are
// re-read from the catalog; products that no longer exist are dropped.
func (s *CartService) Merge(ctx context.Context, userID string, guest []models.GuestCartItem) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	incoming := make([]models.CartItem, 0, len(guest))
	for _, g := range guest {
		p, err := s.product(ctx, g.ID)
		if errors.Is(err, ErrInvalidProduct) {
			s.log.Debug("dropping unknown product from guest cart", "user_id", userID, "product_id", g.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		incoming = append(incoming, snapshot(p, g.Quantity))
	}

	c.Items = cart.Merge(c.Items, incoming)
	s.log.Info("guest cart merged", "user_id", userID, "guest_lines", len(guest), "merged_lines", len(incoming))
	return s.save(ctx, c)
}

func (s *CartService) save(ctx context.Context, c *models.Cart) (*CartView, error) {
	c.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return view(c), nil
}

func (s *CartService) product(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrInvalidProduct
	}
	return p, err
}

func checkStock(p *models.Product, quantity int) error {
	if p.Stock <= 0 {
		return apperr.Validation(fmt.Sprintf("%s is out of stock", p.Name))
	}
	if quantity > p.Stock {
		return apperr.Validation(fmt.Sprintf("Only %d left in stock for %s", p.Stock, p.Name))
	}
	return nil
}

func snapshot(p *models.Product, quantity int) models.CartItem {
	return models.CartItem{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.EffectivePrice(),
		Quantity:       quantity,
		Image:          p.Image(),
		ShippingCharge: p.ShippingCharge,
		CODAvailable:   p.CODAvailable,
	}
}

func view(c *models.Cart) *CartView {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{
		Items:        items,
		ItemCount:    cart.Count(items),
		CODAvailable: cart.CODAvailable(items),
		Totals:       pricing.ComputeTotal(pricing.CartLines(items), nil),
		UpdatedAt:    c.UpdatedAt,
	}
}
