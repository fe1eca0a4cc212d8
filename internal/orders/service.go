package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/internal/cart"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the order lifecycle plus the read surface consumed by
// the HTTP layer and the background workers.
type Service interface {
	ConvertCart(ctx context.Context, caller acl.Caller, input ConvertCartInput) ([]models.Order, error)
	RevertConversion(ctx context.Context, caller acl.Caller, conversionID uuid.UUID) error
	SetOrderState(ctx context.Context, caller acl.Caller, input SetStateInput) (models.Order, error)
	GetByID(ctx context.Context, caller acl.Caller, id uuid.UUID) (models.Order, error)
	GetBySlug(ctx context.Context, caller acl.Caller, slug int64) (models.Order, error)
	ListByCustomer(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error)
	ListByStore(ctx context.Context, caller acl.Caller, storeID int64) ([]models.Order, error)
	Search(ctx context.Context, caller acl.Caller, terms SearchTerms) ([]models.Order, error)
	ListDiffs(ctx context.Context, caller acl.Caller, orderID uuid.UUID) ([]models.OrderDiff, error)

	// Worker surface; callers are in-process, not requests.
	GetOrdersWithState(ctx context.Context, state enums.OrderState, minAge time.Duration) ([]models.Order, error)
	TrackDeliveredOrders(ctx context.Context, maxAge time.Duration) ([]models.Order, error)
	SearchByDiffs(ctx context.Context, filter DiffFilter) ([]models.Order, error)
}

type service struct {
	repo     Repository
	cartRepo cart.CartRepository
	gate     *acl.Gate
	tx       txRunner
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, cartRepo cart.CartRepository, gate *acl.Gate, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("acl gate required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, cartRepo: cartRepo, gate: gate, tx: tx}, nil
}

func committerID(caller acl.Caller) int64 {
	if caller.UserID != nil {
		return *caller.UserID
	}
	return acl.SystemUserID
}

// ConvertCart turns the user's selected cart lines into orders. Orders,
// their opening diffs, and the cart prune land in one transaction; any
// failure leaves the cart untouched.
func (s *service) ConvertCart(ctx context.Context, caller acl.Caller, input ConvertCartInput) ([]models.Order, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.ReceiverName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver name is required")
	}
	if strings.TrimSpace(input.ReceiverPhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver phone is required")
	}

	customer := models.UserCustomer(input.UserID)
	if err := s.gate.AuthorizeCart(caller, customer, acl.ActionWrite); err != nil {
		return nil, err
	}

	conversionID := uuid.New()
	committer := committerID(caller)

	created := []models.Order{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.cartRepo.WithTx(tx)

		selected := true
		items, err := carts.Select(ctx, cart.CartFilter{Customer: &customer, Selected: &selected})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, item := range items {
			price, ok := input.Prices[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodePriceMissing,
					fmt.Sprintf("no price for product %d", item.ProductID)).
					WithDetails(map[string]any{"product_id": item.ProductID})
			}

			slug, err := repo.NextSlug(ctx)
			if err != nil {
				return err
			}

			order, err := repo.Create(ctx, buildOrder(input, item, price, conversionID, slug))
			if err != nil {
				return err
			}

			diff := models.OrderDiff{
				Parent:      order.ID,
				Committer:   committer,
				CommittedAt: now,
				State:       enums.OrderStateNew,
			}
			if _, err := repo.CreateDiff(ctx, diff); err != nil {
				return err
			}
			created = append(created, order)
		}

		_, err = carts.Delete(ctx, cart.CartFilter{Customer: &customer, Selected: &selected})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func buildOrder(input ConvertCartInput, item models.CartItem, price ProductPrice, conversionID uuid.UUID, slug int64) models.Order {
	order := models.Order{
		ID:            uuid.New(),
		Slug:          slug,
		CreatedFrom:   item.ID,
		ConversionID:  conversionID,
		Customer:      input.UserID,
		StoreID:       item.StoreID,
		ProductID:     item.ProductID,
		Price:         price.Price,
		Currency:      price.Currency,
		Quantity:      item.Quantity,
		State:         enums.OrderStateNew,
		ReceiverName:  input.ReceiverName,
		ReceiverPhone: input.ReceiverPhone,
		ReceiverEmail: input.ReceiverEmail,
		PreOrder:      item.PreOrder,
		PreOrderDays:  item.PreOrderDays,
		CouponID:      item.CouponID,

		AdministrativeAreaLevel1: input.Address.AdministrativeAreaLevel1,
		AdministrativeAreaLevel2: input.Address.AdministrativeAreaLevel2,
		Country:                  input.Address.Country,
		Locality:                 input.Address.Locality,
		Political:                input.Address.Political,
		PostalCode:               input.Address.PostalCode,
		Route:                    input.Address.Route,
		StreetNumber:             input.Address.StreetNumber,
		Address:                  input.Address.Address,
		PlaceID:                  input.Address.PlaceID,
		Geo:                      input.Address.Geo,
	}

	total := price.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if coupon, ok := input.Coupons[item.ProductID]; ok {
		order.CouponID = &coupon.CouponID
		order.CouponPercent = coupon.Percent
		order.CouponDiscount = coupon.Discount
		if coupon.Discount != nil {
			total = total.Sub(*coupon.Discount)
		}
	}
	if delivery, ok := input.Delivery[item.ProductID]; ok {
		order.DeliveryCompany = &delivery.Company
		if delivery.Price != nil {
			total = total.Add(*delivery.Price)
		}
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	order.TotalAmount = total
	return order
}

// RevertConversion deletes the conversion's orders and diffs and rebuilds
// the corresponding cart lines. Lines the user re-added since the
// conversion win over the restored ones. Unknown conversion ids are a
// no-op so compensations can be retried.
func (s *service) RevertConversion(ctx context.Context, caller acl.Caller, conversionID uuid.UUID) error {
	if conversionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "conversion id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.cartRepo.WithTx(tx)

		removed, err := repo.DeleteByConversion(ctx, conversionID)
		if err != nil {
			return err
		}
		for _, order := range removed {
			// Denials roll the whole revert back, so probing with a
			// foreign conversion id mutates nothing.
			if err := s.gate.AuthorizeCart(caller, models.UserCustomer(order.Customer), acl.ActionWrite); err != nil {
				return err
			}
			if _, err := carts.Insert(ctx, cartItemFromOrder(order), enums.InsertStrategyCollisionNoOp); err != nil {
				return err
			}
		}
		return nil
	})
}

func cartItemFromOrder(order models.Order) models.CartItem {
	return models.CartItem{
		ID:           order.CreatedFrom,
		Customer:     models.UserCustomer(order.Customer),
		ProductID:    order.ProductID,
		StoreID:      order.StoreID,
		Quantity:     order.Quantity,
		Selected:     true,
		PreOrder:     order.PreOrder,
		PreOrderDays: order.PreOrderDays,
		CouponID:     order.CouponID,
	}
}

// SetOrderState applies one lifecycle transition and appends the diff in
// the same transaction.
func (s *service) SetOrderState(ctx context.Context, caller acl.Caller, input SetStateInput) (models.Order, error) {
	if input.ID == uuid.Nil {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.State.IsValid() {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order state %q", input.State))
	}

	var updated models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if err := s.gate.AuthorizeOrder(caller, &order, acl.ActionWrite); err != nil {
			return err
		}
		if !CanTransition(order.State, input.State) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.State, input.State))
		}
		if input.State == enums.OrderStateSent && !hasTrackID(order, input.TrackID) {
			return pkgerrors.New(pkgerrors.CodeTrackIDRequired, "track id is required to mark an order sent")
		}

		updated, err = repo.UpdateState(ctx, input.ID, input.State, input.TrackID, input.DeliveryCompany)
		if err != nil {
			return err
		}

		diff := models.OrderDiff{
			Parent:      order.ID,
			Committer:   committerID(caller),
			CommittedAt: time.Now().UTC(),
			State:       input.State,
			Comment:     input.Comment,
		}
		_, err = repo.CreateDiff(ctx, diff)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func hasTrackID(order models.Order, incoming *string) bool {
	if incoming != nil && strings.TrimSpace(*incoming) != "" {
		return true
	}
	return order.TrackID != nil && strings.TrimSpace(*order.TrackID) != ""
}

func (s *service) GetByID(ctx context.Context, caller acl.Caller, id uuid.UUID) (models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.gate.AuthorizeOrder(caller, &order, acl.ActionRead); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *service) GetBySlug(ctx context.Context, caller acl.Caller, slug int64) (models.Order, error) {
	order, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.gate.AuthorizeOrder(caller, &order, acl.ActionRead); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error) {
	if err := s.gate.AuthorizeUserScope(caller, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, userID)
}

func (s *service) ListByStore(ctx context.Context, caller acl.Caller, storeID int64) ([]models.Order, error) {
	if err := s.gate.AuthorizeStoreScope(caller, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListByStore(ctx, storeID)
}

// Search requires the terms to pin the caller's own scope unless the
// caller is a superadmin.
func (s *service) Search(ctx context.Context, caller acl.Caller, terms SearchTerms) ([]models.Order, error) {
	if err := s.authorizeSearch(caller, terms); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, terms)
}

func (s *service) authorizeSearch(caller acl.Caller, terms SearchTerms) error {
	if caller.IsSuperadmin() {
		return nil
	}
	if terms.Customer != nil && s.gate.AuthorizeUserScope(caller, *terms.Customer) == nil {
		return nil
	}
	if terms.Store != nil && s.gate.AuthorizeStoreScope(caller, *terms.Store) == nil {
		return nil
	}
	return acl.Deny()
}

func (s *service) ListDiffs(ctx context.Context, caller acl.Caller, orderID uuid.UUID) ([]models.OrderDiff, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeOrder(caller, &order, acl.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.ListDiffs(ctx, orderID)
}

// GetOrdersWithState returns orders sitting in state for at least minAge.
func (s *service) GetOrdersWithState(ctx context.Context, state enums.OrderState, minAge time.Duration) ([]models.Order, error) {
	return s.repo.OrdersOlderThan(ctx, state, minAge)
}

// TrackDeliveredOrders returns delivered orders due for the completion
// follow-up.
func (s *service) TrackDeliveredOrders(ctx context.Context, maxAge time.Duration) ([]models.Order, error) {
	return s.repo.OrdersOlderThan(ctx, enums.OrderStateDelivered, maxAge)
}

func (s *service) SearchByDiffs(ctx context.Context, filter DiffFilter) ([]models.Order, error) {
	return s.repo.SearchByDiff(ctx, filter)
}
