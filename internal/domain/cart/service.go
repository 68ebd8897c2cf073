package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-engine/internal/domain/product"
	"github.com/xenking/market-engine/internal/domain/suggest"
)

// stockWarningThreshold marks lines whose product is nearly sold out.
const stockWarningThreshold = 5

// Item is a cart line joined with the live product data it refers to.
type Item struct {
	Line           Line
	ProductName    string
	ProductImage   string
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
	AvailableStock int
	StockWarning   bool
}

// Summary is the cart as displayed to the user: lines priced at the live
// current price plus the suggestion engine's output.
type Summary struct {
	Items        []Item
	Subtotal     decimal.Decimal
	ItemCount    int
	Alternatives []suggest.Alternative
	Bundle       *suggest.Bundle
}

// Service implements cart reads and stock-bounded cart writes.
type Service struct {
	lines       Repository
	products    product.Repository
	suggestions *suggest.Service
}

// NewService creates a cart Service.
func NewService(lines Repository, products product.Repository, suggestions *suggest.Service) *Service {
	return &Service{lines: lines, products: products, suggestions: suggestions}
}

// GetSummary returns the user's cart priced at live current prices, with
// alternative and bundle suggestions attached.
func (s *Service) GetSummary(ctx context.Context, userID int64) (*Summary, error) {
	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}

	items := make([]Item, 0, len(lines))
	cartItems := make([]suggest.CartItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "load product %d", line.ProductID)
		}

		total := p.CurrentPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, Item{
			Line:           line,
			ProductName:    p.Name,
			ProductImage:   p.ImageURL,
			UnitPrice:      p.CurrentPrice,
			TotalPrice:     total,
			AvailableStock: p.StockQuantity,
			StockWarning:   p.StockQuantity <= stockWarningThreshold,
		})
		cartItems = append(cartItems, suggest.CartItem{Product: *p, Quantity: line.Quantity})
		subtotal = subtotal.Add(total)
	}

	alternatives, err := s.suggestions.Alternatives(ctx, cartItems)
	if err != nil {
		return nil, errors.Wrap(err, "find alternatives")
	}
	bundle, err := s.suggestions.BundleOffer(ctx, cartItems)
	if err != nil {
		return nil, errors.Wrap(err, "find bundle")
	}

	return &Summary{
		Items:        items,
		Subtotal:     subtotal,
		ItemCount:    len(items),
		Alternatives: alternatives,
		Bundle:       bundle,
	}, nil
}

// AddItem adds quantity units of a product to the user's cart, merging with
// an existing line. The combined quantity is bounded by available stock and
// the per-line range.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Line, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, ErrQuantityRange
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrProductInactive
	}

	newQty := quantity
	existing, err := s.lines.Get(ctx, userID, productID)
	switch {
	case err == nil:
		newQty += existing.Quantity
	case errors.Is(err, ErrLineNotFound):
	default:
		return nil, errors.Wrap(err, "get cart line")
	}

	if newQty > MaxQuantity {
		return nil, ErrQuantityRange
	}
	if newQty > p.StockQuantity {
		return nil, &StockLimitError{Available: p.StockQuantity}
	}

	line := &Line{
		UserID:        userID,
		ProductID:     productID,
		Quantity:      newQty,
		PriceSnapshot: p.CurrentPrice,
	}
	if err := s.lines.Upsert(ctx, line); err != nil {
		return nil, errors.Wrap(err, "save cart line")
	}
	return line, nil
}

// UpdateItem replaces the quantity of an existing line, re-checking stock
// and refreshing the price snapshot.
func (s *Service) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*Line, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, ErrQuantityRange
	}

	line, err := s.lines.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.StockQuantity {
		return nil, &StockLimitError{Available: p.StockQuantity}
	}

	line.Quantity = quantity
	line.PriceSnapshot = p.CurrentPrice
	if err := s.lines.Upsert(ctx, line); err != nil {
		return nil, errors.Wrap(err, "save cart line")
	}
	return line, nil
}

// RemoveItem deletes a single line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.lines.Delete(ctx, userID, productID)
}

// Clear removes every line from the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.lines.DeleteByUser(ctx, userID)
}
