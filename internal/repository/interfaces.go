package repository

import (
	"context"
	"errors"

	"gnosislens-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// PurchaseRepository defines purchase and market-price data access methods.
type PurchaseRepository interface {
	// SavePurchase stores a judged purchase and returns its id.
	// An empty ID or zero CreatedAt is assigned by the store.
	SavePurchase(ctx context.Context, p *model.PurchaseRecord) (string, error)

	// GetPurchaseHistory returns a user's newest purchases first.
	GetPurchaseHistory(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error)

	// ListPurchases returns every purchase for userID, or for everyone when
	// userID is empty, newest first.
	ListPurchases(ctx context.Context, userID string) ([]model.PurchaseRecord, error)

	// UpsertMarketPrice records one price report against (country, itemName).
	UpsertMarketPrice(ctx context.Context, country, itemName string, update model.MarketPriceUpdate) error

	// GetMarketPrices returns the aggregates for a country, optionally
	// narrowed to one item.
	GetMarketPrices(ctx context.Context, country, itemName string) ([]model.MarketPriceAggregate, error)

	// GetStats returns store statistics.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

// UserRepository defines user account data access methods.
type UserRepository interface {
	// CreateUser stores u. A taken username or email yields ErrDuplicate.
	CreateUser(ctx context.Context, u *model.User) error

	// FindByUsername returns ErrNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID returns ErrNotFound when no user matches.
	FindByID(ctx context.Context, id string) (*model.User, error)
}
