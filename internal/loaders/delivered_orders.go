package loaders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/logger"
	"github.com/storiqateam/stq-orders/pkg/saga"
)

// DeliveredOrdersParams configure the delivery completion loader.
type DeliveredOrdersParams struct {
	Logger   *logger.Logger
	Orders   deliveredOrdersService
	Saga     paymentStateNotifier
	MaxAge   time.Duration
	Capturer Capturer
}

type deliveredOrdersService interface {
	TrackDeliveredOrders(ctx context.Context, maxAge time.Duration) ([]models.Order, error)
}

type paymentStateNotifier interface {
	SetPaymentState(ctx context.Context, orderID uuid.UUID, state string) error
}

// NewDeliveredOrdersLoader builds the loader that hands orders stuck in
// delivered over to the billing saga. The saga owns the completion
// transition and calls back through the HTTP API; nothing is updated
// locally here.
func NewDeliveredOrdersLoader(params DeliveredOrdersParams) (Loader, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Saga == nil {
		return nil, fmt.Errorf("saga client required")
	}
	capturer := params.Capturer
	if capturer == nil {
		capturer = NewLogCapturer(params.Logger)
	}
	return &deliveredOrdersLoader{
		logg:     params.Logger,
		orders:   params.Orders,
		notifier: params.Saga,
		maxAge:   params.MaxAge,
		capturer: capturer,
	}, nil
}

type deliveredOrdersLoader struct {
	logg     *logger.Logger
	orders   deliveredOrdersService
	notifier paymentStateNotifier
	maxAge   time.Duration
	capturer Capturer
}

func (l *deliveredOrdersLoader) Name() string { return "delivered-orders" }

func (l *deliveredOrdersLoader) Run(ctx context.Context) error {
	batch, err := l.orders.TrackDeliveredOrders(ctx, l.maxAge)
	if err != nil {
		return fmt.Errorf("query delivered orders: %w", err)
	}

	var errs error
	notified := 0
	for _, order := range batch {
		if err := l.notifier.SetPaymentState(ctx, order.ID, saga.PaymentStateToSellerNeeded); err != nil {
			err = fmt.Errorf("order %s: notify saga: %w", order.ID, err)
			l.capturer.Capture(ctx, err)
			errs = multierr.Append(errs, err)
			continue
		}
		notified++
	}

	logCtx := l.logg.WithFields(ctx, map[string]any{
		"orders":   len(batch),
		"notified": notified,
	})
	l.logg.Info(logCtx, "delivered orders sweep complete")
	return errs
}
