package saga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/errors"
)

// PaymentStateToSellerNeeded tells the billing saga that funds for a
// completed delivery can be released to the seller.
const PaymentStateToSellerNeeded = "PaymentToSellerNeeded"

const defaultRetryBackoff = 500 * time.Millisecond

// Client notifies the billing saga about order payment state changes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
}

// NewClient validates the saga configuration and builds a client.
func NewClient(cfg config.DeliveredOrdersConfig, outcall config.OutcallConfig) (*Client, error) {
	if strings.TrimSpace(cfg.SagaURL) == "" {
		return nil, fmt.Errorf("saga url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: outcall.Timeout()},
		baseURL:    strings.TrimRight(cfg.SagaURL, "/"),
		maxRetries: outcall.MaxRetries,
	}, nil
}

type setPaymentStateRequest struct {
	State string `json:"state"`
}

// SetPaymentState posts the new payment state for an order to the saga.
// The saga owns the follow-up order transition, so nothing is mutated
// locally on success.
func (c *Client) SetPaymentState(ctx context.Context, orderID uuid.UUID, state string) error {
	if orderID == uuid.Nil {
		return errors.New(errors.CodeValidation, "order id is required")
	}
	if strings.TrimSpace(state) == "" {
		return errors.New(errors.CodeValidation, "payment state is required")
	}

	payload, err := json.Marshal(setPaymentStateRequest{State: state})
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "encode payment state request")
	}
	endpoint := fmt.Sprintf("%s/orders/%s/set_payment_state", c.baseURL, orderID)

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(defaultRetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.doSetPaymentState(ctx, endpoint, payload)
	})
}

func (c *Client) doSetPaymentState(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "build payment state request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(errors.Wrap(errors.CodeExternal, err, "saga request failed"))
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= http.StatusInternalServerError {
		return retry.RetryableError(errors.New(errors.CodeExternal, fmt.Sprintf("saga returned %s", resp.Status)))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.New(errors.CodeExternal, fmt.Sprintf("saga returned %s", resp.Status))
	}
	return nil
}
