package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/types"
)

// Order persists one purchased product line for one customer at one store.
type Order struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug         int64            `gorm:"column:slug;not null;uniqueIndex:uniq_orders_slug" json:"slug"`
	CreatedFrom  uuid.UUID        `gorm:"column:created_from;type:uuid;not null" json:"created_from"`
	ConversionID uuid.UUID        `gorm:"column:conversion_id;type:uuid;not null;index:idx_orders_conversion_id" json:"conversion_id"`
	Customer     int64            `gorm:"column:customer;not null;index:idx_orders_customer" json:"customer"`
	StoreID      int64            `gorm:"column:store_id;not null;index:idx_orders_store_id" json:"store"`
	ProductID    int64            `gorm:"column:product_id;not null" json:"product"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(20,8);not null" json:"price"`
	Currency     enums.Currency   `gorm:"column:currency;not null" json:"currency"`
	Quantity     int              `gorm:"column:quantity;not null" json:"quantity"`
	State        enums.OrderState `gorm:"column:state;not null;index:idx_orders_state" json:"state"`

	ReceiverName  string `gorm:"column:receiver_name;not null;default:''" json:"receiver_name"`
	ReceiverPhone string `gorm:"column:receiver_phone;not null;default:''" json:"receiver_phone"`
	ReceiverEmail string `gorm:"column:receiver_email;not null;default:''" json:"receiver_email"`

	AdministrativeAreaLevel1 *string               `gorm:"column:administrative_area_level_1" json:"administrative_area_level_1,omitempty"`
	AdministrativeAreaLevel2 *string               `gorm:"column:administrative_area_level_2" json:"administrative_area_level_2,omitempty"`
	Country                  *string               `gorm:"column:country" json:"country,omitempty"`
	Locality                 *string               `gorm:"column:locality" json:"locality,omitempty"`
	Political                *string               `gorm:"column:political" json:"political,omitempty"`
	PostalCode               *string               `gorm:"column:postal_code" json:"postal_code,omitempty"`
	Route                    *string               `gorm:"column:route" json:"route,omitempty"`
	StreetNumber             *string               `gorm:"column:street_number" json:"street_number,omitempty"`
	Address                  *string               `gorm:"column:address" json:"address,omitempty"`
	PlaceID                  *string               `gorm:"column:place_id" json:"place_id,omitempty"`
	Geo                      *types.GeographyPoint `gorm:"column:geo;type:text" json:"geo,omitempty"`

	TrackID         *string `gorm:"column:track_id" json:"track_id,omitempty"`
	DeliveryCompany *string `gorm:"column:delivery_company" json:"delivery_company,omitempty"`

	PreOrder     bool `gorm:"column:pre_order;not null;default:false" json:"pre_order"`
	PreOrderDays int  `gorm:"column:pre_order_days;not null;default:0" json:"pre_order_days"`

	CouponID        *int64           `gorm:"column:coupon_id" json:"coupon_id,omitempty"`
	CouponPercent   *int             `gorm:"column:coupon_percent" json:"coupon_percent,omitempty"`
	CouponDiscount  *decimal.Decimal `gorm:"column:coupon_discount;type:numeric(20,8)" json:"coupon_discount,omitempty"`
	ProductDiscount *decimal.Decimal `gorm:"column:product_discount;type:numeric(20,8)" json:"product_discount,omitempty"`
	TotalAmount     decimal.Decimal  `gorm:"column:total_amount;type:numeric(20,8);not null" json:"total_amount"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
