package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/types"
)

// SearchTerms describe the inputs supported by the order search. Every term
// is optional; set terms are AND-ed together.
type SearchTerms struct {
	Slug        *int64            `json:"slug,omitempty"`
	CreatedFrom *time.Time        `json:"created_from,omitempty"`
	CreatedTo   *time.Time        `json:"created_to,omitempty"`
	Customer    *int64            `json:"customer,omitempty"`
	Store       *int64            `json:"store,omitempty"`
	State       *enums.OrderState `json:"state,omitempty"`
}

// DiffFilter selects orders whose diff history records a transition into
// State with committed_at inside [From, To].
type DiffFilter struct {
	From  time.Time
	To    time.Time
	State enums.OrderState
}

// ProductPrice is the seller price quoted for one product at conversion
// time.
type ProductPrice struct {
	Price    decimal.Decimal `json:"price"`
	Currency enums.Currency  `json:"currency"`
}

// CouponInfo carries the discount applied to one product at conversion.
type CouponInfo struct {
	CouponID int64            `json:"coupon_id"`
	Percent  *int             `json:"percent,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

// DeliveryInfo carries the delivery choice made for one product at
// conversion.
type DeliveryInfo struct {
	Company string           `json:"company"`
	Price   *decimal.Decimal `json:"price,omitempty"`
}

// AddressInput is the flat delivery address captured at conversion.
type AddressInput struct {
	AdministrativeAreaLevel1 *string               `json:"administrative_area_level_1,omitempty"`
	AdministrativeAreaLevel2 *string               `json:"administrative_area_level_2,omitempty"`
	Country                  *string               `json:"country,omitempty"`
	Locality                 *string               `json:"locality,omitempty"`
	Political                *string               `json:"political,omitempty"`
	PostalCode               *string               `json:"postal_code,omitempty"`
	Route                    *string               `json:"route,omitempty"`
	StreetNumber             *string               `json:"street_number,omitempty"`
	Address                  *string               `json:"address,omitempty"`
	PlaceID                  *string               `json:"place_id,omitempty"`
	Geo                      *types.GeographyPoint `json:"geo,omitempty"`
}

// ConvertCartInput captures everything needed to turn a user's selected
// cart lines into orders. Prices is keyed by product id; Coupons and
// Delivery are optional per-product extras.
type ConvertCartInput struct {
	UserID        int64                  `json:"user_id" validate:"required,gt=0"`
	ReceiverName  string                 `json:"receiver_name" validate:"required"`
	ReceiverPhone string                 `json:"receiver_phone" validate:"required"`
	ReceiverEmail string                 `json:"receiver_email,omitempty" validate:"omitempty,email"`
	Address       AddressInput           `json:"address"`
	Prices        map[int64]ProductPrice `json:"prices" validate:"required"`
	Coupons       map[int64]CouponInfo   `json:"coupons,omitempty"`
	Delivery      map[int64]DeliveryInfo `json:"delivery,omitempty"`
}

// SetStateInput captures a requested order state change.
type SetStateInput struct {
	ID              uuid.UUID
	State           enums.OrderState
	TrackID         *string
	DeliveryCompany *string
	Comment         *string
}
