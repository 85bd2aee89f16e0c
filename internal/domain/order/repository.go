package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// NumberPrefix is the prefix of every order number
const NumberPrefix = "ORD"

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewNumber returns an order number of the form ORD-YYYYMMDD-XXXXXX
func NewNumber(now time.Time) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(numberAlphabet)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		sb.WriteByte(numberAlphabet[n.Int64()])
	}
	return fmt.Sprintf("%s-%s-%s", NumberPrefix, now.UTC().Format("20060102"), sb.String()), nil
}

// Filter narrows order listings
type Filter struct {
	shared.Filter
	UserID *uuid.UUID
	Status *Status
	From   *time.Time
	To     *time.Time
}

// Repository defines the interface for order persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindAll(ctx context.Context, filter Filter) ([]*Order, int64, error)
	// FindStale returns orders that have been in status since before the cutoff
	FindStale(ctx context.Context, status Status, before time.Time, limit int) ([]*Order, error)
	Save(ctx context.Context, order *Order) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	// HasDeliveredProduct reports whether the user has a delivered order
	// containing the product
	HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	// GenerateOrderNumber returns an unused order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
