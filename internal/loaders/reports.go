package loaders

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/storiqateam/stq-orders/internal/orders"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/logger"
)

const reportContentType = "text/csv"

// ReportsParams configure the daily order report loader.
type ReportsParams struct {
	Logger   *logger.Logger
	Orders   diffSearcher
	Uploader objectUploader
	Capturer Capturer
}

type diffSearcher interface {
	SearchByDiffs(ctx context.Context, filter orders.DiffFilter) ([]models.Order, error)
}

type objectUploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// NewReportsLoader builds the loader that uploads CSVs of the orders
// that went paid or delivered since the start of yesterday.
func NewReportsLoader(params ReportsParams) (Loader, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	capturer := params.Capturer
	if capturer == nil {
		capturer = NewLogCapturer(params.Logger)
	}
	return &reportsLoader{
		logg:     params.Logger,
		orders:   params.Orders,
		uploader: params.Uploader,
		capturer: capturer,
		now:      time.Now,
	}, nil
}

type reportsLoader struct {
	logg     *logger.Logger
	orders   diffSearcher
	uploader objectUploader
	capturer Capturer
	now      func() time.Time
}

func (l *reportsLoader) Name() string { return "order-reports" }

func (l *reportsLoader) Run(ctx context.Context) error {
	now := l.now().UTC()
	from := startOfYesterday(now)

	var paid, delivered []models.Order
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		paid, err = l.orders.SearchByDiffs(groupCtx, orders.DiffFilter{
			From:  from,
			To:    now,
			State: enums.OrderStatePaid,
		})
		return err
	})
	group.Go(func() error {
		var err error
		delivered, err = l.orders.SearchByDiffs(groupCtx, orders.DiffFilter{
			From:  from,
			To:    now,
			State: enums.OrderStateDelivered,
		})
		return err
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("collect report rows: %w", err)
	}

	var errs error
	reports := []struct {
		state enums.OrderState
		rows  []models.Order
	}{
		{state: enums.OrderStatePaid, rows: paid},
		{state: enums.OrderStateDelivered, rows: delivered},
	}
	for _, report := range reports {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"state": report.state.String(),
			"rows":  len(report.rows),
		})
		if len(report.rows) == 0 {
			l.logg.Info(logCtx, "no report rows, skipping upload")
			continue
		}

		body, err := renderOrdersCSV(report.rows)
		if err != nil {
			err = fmt.Errorf("%s report: render csv: %w", report.state, err)
			l.capturer.Capture(ctx, err)
			errs = multierr.Append(errs, err)
			continue
		}
		key := reportKey(report.state, from, now)
		if _, err := l.uploader.Upload(ctx, key, reportContentType, body); err != nil {
			err = fmt.Errorf("%s report: upload %s: %w", report.state, key, err)
			l.capturer.Capture(ctx, err)
			errs = multierr.Append(errs, err)
			continue
		}
		l.logg.Info(l.logg.WithField(logCtx, "key", key), "report uploaded")
	}
	return errs
}

// startOfYesterday truncates now to midnight UTC of the previous day.
func startOfYesterday(now time.Time) time.Time {
	yesterday := now.UTC().AddDate(0, 0, -1)
	return time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)
}

func reportKey(state enums.OrderState, from, to time.Time) string {
	return fmt.Sprintf("%s_orders_%s_-_%s.csv", state, from.Format(time.RFC3339), to.Format(time.RFC3339))
}

var reportColumns = []string{
	"id", "created_from", "conversion_id", "slug", "customer", "store",
	"product", "price", "currency", "quantity", "receiver_name",
	"receiver_phone", "receiver_email", "state", "delivery_company",
	"track_id", "pre_order", "pre_order_days", "coupon_id",
	"coupon_percent", "coupon_discount", "product_discount",
	"total_amount", "administrative_area_level_1",
	"administrative_area_level_2", "country", "locality", "political",
	"postal_code", "route", "street_number", "address", "place_id",
}

func renderOrdersCSV(rows []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(reportColumns); err != nil {
		return nil, err
	}
	for _, order := range rows {
		record := []string{
			order.ID.String(),
			order.CreatedFrom.String(),
			order.ConversionID.String(),
			strconv.FormatInt(order.Slug, 10),
			strconv.FormatInt(order.Customer, 10),
			strconv.FormatInt(order.StoreID, 10),
			strconv.FormatInt(order.ProductID, 10),
			order.Price.String(),
			order.Currency.String(),
			strconv.Itoa(order.Quantity),
			order.ReceiverName,
			order.ReceiverPhone,
			order.ReceiverEmail,
			order.State.String(),
			stringCell(order.DeliveryCompany),
			stringCell(order.TrackID),
			strconv.FormatBool(order.PreOrder),
			strconv.Itoa(order.PreOrderDays),
			int64Cell(order.CouponID),
			intCell(order.CouponPercent),
			decimalCell(order.CouponDiscount),
			decimalCell(order.ProductDiscount),
			order.TotalAmount.String(),
			stringCell(order.AdministrativeAreaLevel1),
			stringCell(order.AdministrativeAreaLevel2),
			stringCell(order.Country),
			stringCell(order.Locality),
			stringCell(order.Political),
			stringCell(order.PostalCode),
			stringCell(order.Route),
			stringCell(order.StreetNumber),
			stringCell(order.Address),
			stringCell(order.PlaceID),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringCell(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func int64Cell(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}

func intCell(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func decimalCell(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.String()
}
