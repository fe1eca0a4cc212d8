package loaders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/internal/orders"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

// SentOrdersParams configure the shipping tracker loader.
type SentOrdersParams struct {
	Logger   *logger.Logger
	Orders   trackedOrdersService
	Carrier  carrierClient
	MinAge   time.Duration
	Capturer Capturer
}

type trackedOrdersService interface {
	GetOrdersWithState(ctx context.Context, state enums.OrderState, minAge time.Duration) ([]models.Order, error)
	SetOrderState(ctx context.Context, caller acl.Caller, input orders.SetStateInput) (models.Order, error)
}

type carrierClient interface {
	DeliveryStatus(ctx context.Context, trackID string) (enums.DeliveryStatus, error)
}

// NewSentOrdersLoader builds the loader that polls the carrier for sent
// orders and advances the delivered ones.
func NewSentOrdersLoader(params SentOrdersParams) (Loader, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	capturer := params.Capturer
	if capturer == nil {
		capturer = NewLogCapturer(params.Logger)
	}
	return &sentOrdersLoader{
		logg:     params.Logger,
		orders:   params.Orders,
		carrier:  params.Carrier,
		minAge:   params.MinAge,
		capturer: capturer,
	}, nil
}

type sentOrdersLoader struct {
	logg     *logger.Logger
	orders   trackedOrdersService
	carrier  carrierClient
	minAge   time.Duration
	capturer Capturer
}

func (l *sentOrdersLoader) Name() string { return "sent-orders" }

// Run asks the carrier about every sent order that carries a track id
// and marks the delivered ones. A failure on one order is captured and
// the sweep moves on to the next.
func (l *sentOrdersLoader) Run(ctx context.Context) error {
	batch, err := l.orders.GetOrdersWithState(ctx, enums.OrderStateSent, l.minAge)
	if err != nil {
		return fmt.Errorf("query sent orders: %w", err)
	}

	var errs error
	checked, advanced := 0, 0
	for _, order := range batch {
		if order.TrackID == nil || strings.TrimSpace(*order.TrackID) == "" {
			continue
		}
		checked++
		trackID := strings.TrimSpace(*order.TrackID)

		status, err := l.carrier.DeliveryStatus(ctx, trackID)
		if err != nil {
			err = fmt.Errorf("order %s track %s: delivery status: %w", order.ID, trackID, err)
			l.capturer.Capture(ctx, err)
			errs = multierr.Append(errs, err)
			continue
		}
		if status != enums.DeliveryStatusDelivered {
			continue
		}

		input := orders.SetStateInput{ID: order.ID, State: enums.OrderStateDelivered}
		if _, err := l.orders.SetOrderState(ctx, acl.SystemCaller(), input); err != nil {
			err = fmt.Errorf("order %s: mark delivered: %w", order.ID, err)
			l.capturer.Capture(ctx, err)
			errs = multierr.Append(errs, err)
			continue
		}
		advanced++
	}

	logCtx := l.logg.WithFields(ctx, map[string]any{
		"orders":   len(batch),
		"checked":  checked,
		"advanced": advanced,
	})
	l.logg.Info(logCtx, "sent orders sweep complete")
	return errs
}
