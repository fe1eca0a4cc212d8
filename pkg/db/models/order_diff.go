package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/pkg/enums"
)

// OrderDiff is one immutable record of an order state change. Rows are only
// ever appended, in the same transaction as the order update they describe.
type OrderDiff struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Parent      uuid.UUID        `gorm:"column:parent;type:uuid;not null;index:idx_order_diffs_parent_committed_at" json:"parent"`
	Committer   int64            `gorm:"column:committer;not null" json:"committer"`
	CommittedAt time.Time        `gorm:"column:committed_at;not null;index:idx_order_diffs_parent_committed_at" json:"committed_at"`
	State       enums.OrderState `gorm:"column:state;not null;index:idx_order_diffs_state" json:"state"`
	Comment     *string          `gorm:"column:comment" json:"comment,omitempty"`
}
