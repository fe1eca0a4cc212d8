package cart

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db/models"
)

// CartFilter narrows cart rows. All fields are optional; a nil Customer
// spans both partitions.
type CartFilter struct {
	Customer     *models.Customer
	ID           *uuid.UUID
	ProductID    *int64
	ProductIDGte *int64
	ProductIDLte *int64
	StoreIDGte   *int64
	StoreIDLte   *int64
	Selected     *bool
	Comment      *string
	Limit        *int
}

// apply adds the owner-independent predicates to a partition query.
func (f CartFilter) apply(q *gorm.DB) *gorm.DB {
	if f.ID != nil {
		q = q.Where("id = ?", *f.ID)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.ProductIDGte != nil {
		q = q.Where("product_id >= ?", *f.ProductIDGte)
	}
	if f.ProductIDLte != nil {
		q = q.Where("product_id <= ?", *f.ProductIDLte)
	}
	if f.StoreIDGte != nil {
		q = q.Where("store_id >= ?", *f.StoreIDGte)
	}
	if f.StoreIDLte != nil {
		q = q.Where("store_id <= ?", *f.StoreIDLte)
	}
	if f.Selected != nil {
		q = q.Where("selected = ?", *f.Selected)
	}
	if f.Comment != nil {
		q = q.Where("comment = ?", *f.Comment)
	}
	return q
}

// CartPatch is the set of optional fields an update may change. Only the
// present fields are applied.
type CartPatch struct {
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Selected *bool   `json:"selected,omitempty"`
	Comment  *string `json:"comment,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p CartPatch) IsZero() bool {
	return p.Quantity == nil && p.Selected == nil && p.Comment == nil
}

func (p CartPatch) assignments() map[string]any {
	updates := map[string]any{}
	if p.Quantity != nil {
		updates["quantity"] = *p.Quantity
	}
	if p.Selected != nil {
		updates["selected"] = *p.Selected
	}
	if p.Comment != nil {
		updates["comment"] = *p.Comment
	}
	return updates
}
