package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

const (
	userUpsertSQL = `INSERT INTO cart_items_user
  (id, user_id, product_id, store_id, quantity, selected, comment, pre_order, pre_order_days, coupon_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, product_id) `

	sessionUpsertSQL = `INSERT INTO cart_items_session
  (id, session_id, product_id, store_id, quantity, selected, comment, pre_order, pre_order_days, coupon_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, product_id) `
)

// Repository exposes one logical persistence surface over the two cart
// partitions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// conflictAction renders the ON CONFLICT clause for the strategy. The
// returned fragment is appended to the partition's upsert statement.
func conflictAction(strategy enums.InsertStrategy, table string) string {
	switch strategy {
	case enums.InsertStrategyReplacer:
		return `DO UPDATE SET
  store_id = EXCLUDED.store_id,
  quantity = EXCLUDED.quantity,
  selected = EXCLUDED.selected,
  comment = EXCLUDED.comment,
  pre_order = EXCLUDED.pre_order,
  pre_order_days = EXCLUDED.pre_order_days,
  coupon_id = EXCLUDED.coupon_id`
	case enums.InsertStrategyIncrementer:
		return fmt.Sprintf("DO UPDATE SET quantity = %s.quantity + 1", table)
	case enums.InsertStrategyCollisionNoOp:
		return "DO NOTHING"
	}
	return ""
}

// Insert adds a cart line using the given collision strategy and returns
// the row as stored after the statement (the post-image).
func (r *Repository) Insert(ctx context.Context, item models.CartItem, strategy enums.InsertStrategy) (models.CartItem, error) {
	if !strategy.IsValid() {
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid insert strategy %q", strategy))
	}
	switch {
	case item.Customer.IsUser():
		return r.insertUser(ctx, item, strategy)
	case item.Customer.IsSession():
		return r.insertSession(ctx, item, strategy)
	default:
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "cart item requires a customer")
	}
}

func (r *Repository) insertUser(ctx context.Context, item models.CartItem, strategy enums.InsertStrategy) (models.CartItem, error) {
	row := item.UserRow(*item.Customer.UserID)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	q := r.db.WithContext(ctx)
	if strategy == enums.InsertStrategyStandard {
		if err := q.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return models.CartItem{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart item already exists")
			}
			return models.CartItem{}, err
		}
	} else {
		stmt := userUpsertSQL + conflictAction(strategy, "cart_items_user")
		err := q.Exec(stmt, row.ID, row.UserID, row.ProductID, row.StoreID,
			row.Quantity, row.Selected, row.Comment, row.PreOrder, row.PreOrderDays, row.CouponID).Error
		if err != nil {
			return models.CartItem{}, err
		}
	}

	var saved models.CartItemUser
	err := q.Where("user_id = ? AND product_id = ?", row.UserID, row.ProductID).First(&saved).Error
	if err != nil {
		return models.CartItem{}, err
	}
	return saved.Logical(), nil
}

func (r *Repository) insertSession(ctx context.Context, item models.CartItem, strategy enums.InsertStrategy) (models.CartItem, error) {
	row := item.SessionRow(*item.Customer.SessionID)
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}

	q := r.db.WithContext(ctx)
	if strategy == enums.InsertStrategyStandard {
		if err := q.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return models.CartItem{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart item already exists")
			}
			return models.CartItem{}, err
		}
	} else {
		stmt := sessionUpsertSQL + conflictAction(strategy, "cart_items_session")
		err := q.Exec(stmt, row.ID, row.SessionID, row.ProductID, row.StoreID,
			row.Quantity, row.Selected, row.Comment, row.PreOrder, row.PreOrderDays, row.CouponID).Error
		if err != nil {
			return models.CartItem{}, err
		}
	}

	var saved models.CartItemSession
	err := q.Where("session_id = ? AND product_id = ?", row.SessionID, row.ProductID).First(&saved).Error
	if err != nil {
		return models.CartItem{}, err
	}
	return saved.Logical(), nil
}

// Select returns the rows matching the filter ordered by product id. With
// no customer the result is the union of both partitions.
func (r *Repository) Select(ctx context.Context, filter CartFilter) ([]models.CartItem, error) {
	if filter.Customer != nil && filter.Customer.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart filter customer is empty")
	}

	var items []models.CartItem

	if filter.Customer == nil || filter.Customer.IsUser() {
		q := r.db.WithContext(ctx).Model(&models.CartItemUser{})
		if filter.Customer != nil {
			q = q.Where("user_id = ?", *filter.Customer.UserID)
		}
		q = filter.apply(q).Order("product_id")
		if filter.Limit != nil {
			q = q.Limit(*filter.Limit)
		}
		var rows []models.CartItemUser
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			items = append(items, row.Logical())
		}
	}

	if filter.Customer == nil || filter.Customer.IsSession() {
		q := r.db.WithContext(ctx).Model(&models.CartItemSession{})
		if filter.Customer != nil {
			q = q.Where("session_id = ?", *filter.Customer.SessionID)
		}
		q = filter.apply(q).Order("product_id")
		if filter.Limit != nil {
			q = q.Limit(*filter.Limit)
		}
		var rows []models.CartItemSession
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			items = append(items, row.Logical())
		}
	}

	sortItems(items)
	if filter.Limit != nil && len(items) > *filter.Limit {
		items = items[:*filter.Limit]
	}
	return items, nil
}

// Update patches the row identified by (customer, product). Zero matched
// rows surface as not-found.
func (r *Repository) Update(ctx context.Context, customer models.Customer, productID int64, patch CartPatch) (models.CartItem, error) {
	updates := patch.assignments()

	switch {
	case customer.IsUser():
		if len(updates) > 0 {
			res := r.db.WithContext(ctx).
				Model(&models.CartItemUser{}).
				Where("user_id = ? AND product_id = ?", *customer.UserID, productID).
				Updates(updates)
			if res.Error != nil {
				return models.CartItem{}, res.Error
			}
			if res.RowsAffected == 0 {
				return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
		}
		var row models.CartItemUser
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND product_id = ?", *customer.UserID, productID).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return models.CartItem{}, err
		}
		return row.Logical(), nil

	case customer.IsSession():
		if len(updates) > 0 {
			res := r.db.WithContext(ctx).
				Model(&models.CartItemSession{}).
				Where("session_id = ? AND product_id = ?", *customer.SessionID, productID).
				Updates(updates)
			if res.Error != nil {
				return models.CartItem{}, res.Error
			}
			if res.RowsAffected == 0 {
				return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
		}
		var row models.CartItemSession
		err := r.db.WithContext(ctx).
			Where("session_id = ? AND product_id = ?", *customer.SessionID, productID).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.CartItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return models.CartItem{}, err
		}
		return row.Logical(), nil

	default:
		return models.CartItem{}, pkgerrors.New(pkgerrors.CodeValidation, "cart update requires a customer")
	}
}

// Delete removes the rows matching the filter and returns them. The rows
// are resolved first and removed by id so the returned set is exact.
func (r *Repository) Delete(ctx context.Context, filter CartFilter) ([]models.CartItem, error) {
	removed, err := r.Select(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}

	var userRows, sessionRows []uuid.UUID
	for _, item := range removed {
		if item.Customer.IsUser() {
			userRows = append(userRows, item.ID)
		} else {
			sessionRows = append(sessionRows, item.ID)
		}
	}

	if len(userRows) > 0 {
		err := r.db.WithContext(ctx).
			Where("id IN ?", userRows).
			Delete(&models.CartItemUser{}).Error
		if err != nil {
			return nil, err
		}
	}
	if len(sessionRows) > 0 {
		err := r.db.WithContext(ctx).
			Where("id IN ?", sessionRows).
			Delete(&models.CartItemSession{}).Error
		if err != nil {
			return nil, err
		}
	}
	return removed, nil
}

func sortItems(items []models.CartItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}
