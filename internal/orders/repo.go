package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		if db.IsUniqueViolation(err, "uniq_orders_slug") {
			return models.Order{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order slug already taken")
		}
		return models.Order{}, err
	}
	return order, nil
}

func (r *repository) CreateDiff(ctx context.Context, diff models.OrderDiff) (models.OrderDiff, error) {
	if diff.ID == uuid.Nil {
		diff.ID = uuid.New()
	}
	if diff.CommittedAt.IsZero() {
		diff.CommittedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&diff).Error; err != nil {
		return models.OrderDiff{}, err
	}
	return diff, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return models.Order{}, err
	}
	return order, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug int64) (models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return models.Order{}, err
	}
	return order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("customer = ?", userID).
		Order("slug DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID int64) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("slug DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Search(ctx context.Context, terms SearchTerms) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if terms.Slug != nil {
		q = q.Where("slug = ?", *terms.Slug)
	}
	if terms.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *terms.CreatedFrom)
	}
	if terms.CreatedTo != nil {
		q = q.Where("created_at <= ?", *terms.CreatedTo)
	}
	if terms.Customer != nil {
		q = q.Where("customer = ?", *terms.Customer)
	}
	if terms.Store != nil {
		q = q.Where("store_id = ?", *terms.Store)
	}
	if terms.State != nil {
		q = q.Where("state = ?", *terms.State)
	}

	var out []models.Order
	if err := q.Order("slug DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByDiff returns the current rows of orders whose diff history holds
// a transition into filter.State inside the window. Orders with several
// matching diffs appear once.
func (r *repository) SearchByDiff(ctx context.Context, filter DiffFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Distinct("orders.*").
		Joins("JOIN order_diffs ON order_diffs.parent = orders.id").
		Where("order_diffs.state = ?", filter.State)
	if !filter.From.IsZero() {
		q = q.Where("order_diffs.committed_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("order_diffs.committed_at <= ?", filter.To)
	}

	var out []models.Order
	if err := q.Order("orders.slug").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListDiffs(ctx context.Context, orderID uuid.UUID) ([]models.OrderDiff, error) {
	var out []models.OrderDiff
	err := r.db.WithContext(ctx).
		Where("parent = ?", orderID).
		Order("committed_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) OrdersOlderThan(ctx context.Context, state enums.OrderState, maxAge time.Duration) ([]models.Order, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	var out []models.Order
	err := r.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", state, cutoff).
		Order("updated_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdateState(ctx context.Context, id uuid.UUID, state enums.OrderState, trackID, deliveryCompany *string) (models.Order, error) {
	updates := map[string]any{"state": state}
	if trackID != nil {
		updates["track_id"] = *trackID
	}
	if deliveryCompany != nil {
		updates["delivery_company"] = *deliveryCompany
	}

	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return r.GetByID(ctx, id)
}

// DeleteByConversion removes every order of one conversion together with
// its diff log and returns the removed orders.
func (r *repository) DeleteByConversion(ctx context.Context, conversionID uuid.UUID) ([]models.Order, error) {
	var removed []models.Order
	err := r.db.WithContext(ctx).
		Where("conversion_id = ?", conversionID).
		Order("slug").
		Find(&removed).Error
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(removed))
	for _, order := range removed {
		ids = append(ids, order.ID)
	}

	if err := r.db.WithContext(ctx).Where("parent IN ?", ids).Delete(&models.OrderDiff{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Order{}).Error; err != nil {
		return nil, err
	}
	return removed, nil
}

// NextSlug hands out the next human-visible order number. Callers run it
// inside the conversion transaction; the unique index on slug backstops
// concurrent conversions.
func (r *repository) NextSlug(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(slug), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
