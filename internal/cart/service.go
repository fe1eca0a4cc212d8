package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the cart operations backing the HTTP surface. Every
// method returns the resulting cart for the customer it acted on.
type Service interface {
	GetCart(ctx context.Context, customer models.Customer) ([]models.CartItem, error)
	IncrementItem(ctx context.Context, customer models.Customer, productID, storeID int64) ([]models.CartItem, error)
	SetQuantity(ctx context.Context, customer models.Customer, productID int64, quantity int) ([]models.CartItem, error)
	SetSelection(ctx context.Context, customer models.Customer, productID int64, selected bool) ([]models.CartItem, error)
	SetComment(ctx context.Context, customer models.Customer, productID int64, comment string) ([]models.CartItem, error)
	DeleteItem(ctx context.Context, customer models.Customer, productID int64) ([]models.CartItem, error)
	ClearCart(ctx context.Context, customer models.Customer) ([]models.CartItem, error)
	List(ctx context.Context, customer models.Customer, fromProductID int64, count int) ([]models.CartItem, error)
	Merge(ctx context.Context, from, to models.Customer) ([]models.CartItem, error)
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func requireCustomer(customer models.Customer) error {
	if customer.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}
	return nil
}

// GetCart returns every cart line for the customer.
func (s *service) GetCart(ctx context.Context, customer models.Customer) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}
	return s.selectCart(ctx, s.repo, customer)
}

// IncrementItem adds one unit of the product. A fresh line starts at
// quantity 1, selected, with an empty comment.
func (s *service) IncrementItem(ctx context.Context, customer models.Customer, productID, storeID int64) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if storeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	item := models.CartItem{
		Customer:  customer,
		ProductID: productID,
		StoreID:   storeID,
		Quantity:  1,
		Selected:  true,
		Comment:   "",
	}

	var result []models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Insert(ctx, item, enums.InsertStrategyIncrementer); err != nil {
			return err
		}
		var err error
		result, err = s.selectCart(ctx, txRepo, customer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetQuantity updates the line's quantity. A missing line is a no-op that
// returns the cart unchanged.
func (s *service) SetQuantity(ctx context.Context, customer models.Customer, productID int64, quantity int) ([]models.CartItem, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	return s.patchItem(ctx, customer, productID, CartPatch{Quantity: &quantity})
}

// SetSelection flags the line for (or out of) conversion.
func (s *service) SetSelection(ctx context.Context, customer models.Customer, productID int64, selected bool) ([]models.CartItem, error) {
	return s.patchItem(ctx, customer, productID, CartPatch{Selected: &selected})
}

// SetComment replaces the line's comment.
func (s *service) SetComment(ctx context.Context, customer models.Customer, productID int64, comment string) ([]models.CartItem, error) {
	return s.patchItem(ctx, customer, productID, CartPatch{Comment: &comment})
}

func (s *service) patchItem(ctx context.Context, customer models.Customer, productID int64, patch CartPatch) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}

	var result []models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, customer, productID, patch); err != nil {
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
				return err
			}
		}
		var err error
		result, err = s.selectCart(ctx, txRepo, customer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteItem removes the line and returns the remaining cart. Removing an
// absent line is a no-op.
func (s *service) DeleteItem(ctx context.Context, customer models.Customer, productID int64) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}

	var result []models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Delete(ctx, CartFilter{Customer: &customer, ProductID: &productID}); err != nil {
			return err
		}
		var err error
		result, err = s.selectCart(ctx, txRepo, customer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearCart drops every line for the customer. Clearing an empty cart is
// fine and returns the same empty set.
func (s *service) ClearCart(ctx context.Context, customer models.Customer) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Delete(ctx, CartFilter{Customer: &customer})
		return err
	})
	if err != nil {
		return nil, err
	}
	return []models.CartItem{}, nil
}

// List pages the cart ordered by product id, starting at fromProductID.
func (s *service) List(ctx context.Context, customer models.Customer, fromProductID int64, count int) ([]models.CartItem, error) {
	if err := requireCustomer(customer); err != nil {
		return nil, err
	}
	if fromProductID < 0 || count < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pagination bounds must be non-negative")
	}

	items, err := s.repo.Select(ctx, CartFilter{
		Customer:     &customer,
		ProductIDGte: &fromProductID,
		Limit:        &count,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

// Merge moves every line of from into to in one transaction. Lines already
// present in to win; a failure leaves both carts untouched.
func (s *service) Merge(ctx context.Context, from, to models.Customer) ([]models.CartItem, error) {
	if err := requireCustomer(from); err != nil {
		return nil, err
	}
	if err := requireCustomer(to); err != nil {
		return nil, err
	}
	if from.String() == to.String() {
		return s.GetCart(ctx, to)
	}

	var result []models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		removed, err := txRepo.Delete(ctx, CartFilter{Customer: &from})
		if err != nil {
			return err
		}
		for _, item := range removed {
			moved := models.CartItem{
				Customer:     to,
				ProductID:    item.ProductID,
				StoreID:      item.StoreID,
				Quantity:     item.Quantity,
				Selected:     item.Selected,
				Comment:      item.Comment,
				PreOrder:     item.PreOrder,
				PreOrderDays: item.PreOrderDays,
				CouponID:     item.CouponID,
			}
			if _, err := txRepo.Insert(ctx, moved, enums.InsertStrategyCollisionNoOp); err != nil {
				return err
			}
		}

		result, err = s.selectCart(ctx, txRepo, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) selectCart(ctx context.Context, repo CartRepository, customer models.Customer) ([]models.CartItem, error) {
	items, err := repo.Select(ctx, CartFilter{Customer: &customer})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}
