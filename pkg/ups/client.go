package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/errors"
)

const (
	customerContext     = "Storiqa"
	requestOption       = "1"
	deliveredType       = "D"
	defaultRetryBackoff = 500 * time.Millisecond
)

// Client talks to the UPS tracking API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	license    string
	maxRetries int
}

// NewClient validates the carrier configuration and builds a client.
func NewClient(cfg config.SentOrdersConfig, outcall config.OutcallConfig) (*Client, error) {
	if strings.TrimSpace(cfg.UPSAPIURL) == "" {
		return nil, fmt.Errorf("ups api url is required")
	}
	if strings.TrimSpace(cfg.UPSAPIAccessLicenseNum) == "" {
		return nil, fmt.Errorf("ups access license number is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: outcall.Timeout()},
		apiURL:     cfg.UPSAPIURL,
		license:    cfg.UPSAPIAccessLicenseNum,
		maxRetries: outcall.MaxRetries,
	}, nil
}

type trackRequest struct {
	UPSSecurity  upsSecurity  `json:"UPSSecurity"`
	TrackRequest trackDetails `json:"TrackRequest"`
}

type upsSecurity struct {
	ServiceAccessToken serviceAccessToken `json:"ServiceAccessToken"`
}

type serviceAccessToken struct {
	AccessLicenseNumber string `json:"AccessLicenseNumber"`
}

type trackDetails struct {
	Request       trackOptions `json:"Request"`
	InquiryNumber string       `json:"InquiryNumber"`
}

type trackOptions struct {
	RequestOption        string               `json:"RequestOption"`
	TransactionReference transactionReference `json:"TransactionReference"`
}

type transactionReference struct {
	CustomerContext string `json:"CustomerContext"`
}

type trackEnvelope struct {
	Fault         *fault       `json:"Fault,omitempty"`
	TrackResponse *trackResult `json:"TrackResponse,omitempty"`
}

type fault struct {
	FaultCode   string          `json:"faultcode,omitempty"`
	FaultString string          `json:"faultstring,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
}

type trackResult struct {
	Shipment shipment `json:"Shipment"`
}

type shipment struct {
	Package packageInfo `json:"Package"`
}

type packageInfo struct {
	Activity activityList `json:"Activity"`
}

type activity struct {
	Status activityStatus `json:"Status"`
}

type activityStatus struct {
	Type        string `json:"Type"`
	Description string `json:"Description,omitempty"`
	Code        string `json:"Code,omitempty"`
}

// activityList accepts the carrier's Activity field as either a single
// object or an array and normalizes it to a slice.
type activityList []activity

func (a *activityList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*a = nil
		return nil
	}
	if trimmed[0] == '[' {
		var list []activity
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*a = list
		return nil
	}
	var single activity
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*a = activityList{single}
	return nil
}

// DeliveryStatus polls the carrier for the shipment identified by trackID.
func (c *Client) DeliveryStatus(ctx context.Context, trackID string) (enums.DeliveryStatus, error) {
	if strings.TrimSpace(trackID) == "" {
		return "", errors.New(errors.CodeValidation, "track id is required")
	}

	payload, err := json.Marshal(trackRequest{
		UPSSecurity: upsSecurity{
			ServiceAccessToken: serviceAccessToken{AccessLicenseNumber: c.license},
		},
		TrackRequest: trackDetails{
			Request: trackOptions{
				RequestOption:        requestOption,
				TransactionReference: transactionReference{CustomerContext: customerContext},
			},
			InquiryNumber: trackID,
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "encode track request")
	}

	var parsed trackEnvelope
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(defaultRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.doTrackRequest(ctx, payload, &parsed)
	})
	if err != nil {
		return "", err
	}

	if parsed.Fault != nil {
		faultErr := errors.New(errors.CodeExternal, "carrier returned fault").WithDetails(map[string]any{
			"track_id":    trackID,
			"faultcode":   parsed.Fault.FaultCode,
			"faultstring": parsed.Fault.FaultString,
		})
		return "", faultErr
	}
	if parsed.TrackResponse == nil {
		return "", errors.New(errors.CodeExternal, "carrier response missing track data")
	}

	for _, act := range parsed.TrackResponse.Shipment.Package.Activity {
		if act.Status.Type == deliveredType {
			return enums.DeliveryStatusDelivered, nil
		}
	}
	return enums.DeliveryStatusInProgress, nil
}

func (c *Client) doTrackRequest(ctx context.Context, payload []byte, out *trackEnvelope) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "build track request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(errors.Wrap(errors.CodeExternal, err, "carrier request failed"))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return retry.RetryableError(errors.New(errors.CodeExternal, fmt.Sprintf("carrier returned %s", resp.Status)))
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeExternal, fmt.Sprintf("carrier returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retry.RetryableError(errors.Wrap(errors.CodeExternal, err, "read carrier response"))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(errors.CodeExternal, err, "decode carrier response")
	}
	return nil
}
