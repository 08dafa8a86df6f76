package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order's fulfillment stage, distinct from the payment stage.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentPending is the payment stage every new order starts in. Payment is
// recorded as a status string only; no gateway is involved.
const PaymentPending = "pending"

// transitions is the adjacency table of legal status moves: single-step
// forward progress plus cancellation from any non-terminal state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus converts a raw string to a Status, rejecting anything outside
// the enumerated set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CartItem is one client-held cart line submitted at checkout. The price was
// captured when the item was added to the cart and is the price snapshotted
// into the order.
type CartItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	ImageURL  string
}

// Item is a point-in-time snapshot of one cart line within a persisted order,
// deliberately decoupled from the live product so later catalog edits never
// alter historical orders.
type Item struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// ShippingDetails holds the destination fields for an order.
type ShippingDetails struct {
	Address string
	City    string
	State   string
	Pincode string
	Phone   string
}

// Order is the immutable record of a completed checkout. After creation only
// Status and PaymentStatus may change.
type Order struct {
	ID             string
	UserID         string
	Status         Status
	PaymentStatus  string
	PaymentMethod  string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	CouponID       string
	Shipping       ShippingDetails
	Notes          string
	Items          []Item
	CreatedAt      time.Time
}

// DisplayID is the short human-readable form shown in UIs: '#' plus the last
// five characters of the ID. Never a lookup key.
func (o *Order) DisplayID() string {
	id := o.ID
	if len(id) > 5 {
		id = id[len(id)-5:]
	}
	return fmt.Sprintf("#%s", id)
}

// Repository defines persistence operations for orders. Create must persist
// the order and all of its items atomically, and must perform the conditional
// coupon redemption increment in the same transaction when CouponID is set.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
