package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/internal/acl"
	ordersvc "github.com/storiqateam/stq-orders/internal/orders"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	pkgerrors "github.com/storiqateam/stq-orders/pkg/errors"
)

type stubOrdersService struct {
	convertCart      func(ctx context.Context, caller acl.Caller, input ordersvc.ConvertCartInput) ([]models.Order, error)
	revertConversion func(ctx context.Context, caller acl.Caller, conversionID uuid.UUID) error
	setOrderState    func(ctx context.Context, caller acl.Caller, input ordersvc.SetStateInput) (models.Order, error)
	getByID          func(ctx context.Context, caller acl.Caller, id uuid.UUID) (models.Order, error)
	getBySlug        func(ctx context.Context, caller acl.Caller, slug int64) (models.Order, error)
	listByCustomer   func(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error)
	listByStore      func(ctx context.Context, caller acl.Caller, storeID int64) ([]models.Order, error)
	search           func(ctx context.Context, caller acl.Caller, terms ordersvc.SearchTerms) ([]models.Order, error)
	listDiffs        func(ctx context.Context, caller acl.Caller, orderID uuid.UUID) ([]models.OrderDiff, error)
}

func (s *stubOrdersService) ConvertCart(ctx context.Context, caller acl.Caller, input ordersvc.ConvertCartInput) ([]models.Order, error) {
	if s.convertCart != nil {
		return s.convertCart(ctx, caller, input)
	}
	return []models.Order{}, nil
}

func (s *stubOrdersService) RevertConversion(ctx context.Context, caller acl.Caller, conversionID uuid.UUID) error {
	if s.revertConversion != nil {
		return s.revertConversion(ctx, caller, conversionID)
	}
	return nil
}

func (s *stubOrdersService) SetOrderState(ctx context.Context, caller acl.Caller, input ordersvc.SetStateInput) (models.Order, error) {
	if s.setOrderState != nil {
		return s.setOrderState(ctx, caller, input)
	}
	return models.Order{}, nil
}

func (s *stubOrdersService) GetByID(ctx context.Context, caller acl.Caller, id uuid.UUID) (models.Order, error) {
	if s.getByID != nil {
		return s.getByID(ctx, caller, id)
	}
	return models.Order{}, nil
}

func (s *stubOrdersService) GetBySlug(ctx context.Context, caller acl.Caller, slug int64) (models.Order, error) {
	if s.getBySlug != nil {
		return s.getBySlug(ctx, caller, slug)
	}
	return models.Order{}, nil
}

func (s *stubOrdersService) ListByCustomer(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error) {
	if s.listByCustomer != nil {
		return s.listByCustomer(ctx, caller, userID)
	}
	return []models.Order{}, nil
}

func (s *stubOrdersService) ListByStore(ctx context.Context, caller acl.Caller, storeID int64) ([]models.Order, error) {
	if s.listByStore != nil {
		return s.listByStore(ctx, caller, storeID)
	}
	return []models.Order{}, nil
}

func (s *stubOrdersService) Search(ctx context.Context, caller acl.Caller, terms ordersvc.SearchTerms) ([]models.Order, error) {
	if s.search != nil {
		return s.search(ctx, caller, terms)
	}
	return []models.Order{}, nil
}

func (s *stubOrdersService) ListDiffs(ctx context.Context, caller acl.Caller, orderID uuid.UUID) ([]models.OrderDiff, error) {
	if s.listDiffs != nil {
		return s.listDiffs(ctx, caller, orderID)
	}
	return []models.OrderDiff{}, nil
}

func (s *stubOrdersService) GetOrdersWithState(ctx context.Context, state enums.OrderState, minAge time.Duration) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) TrackDeliveredOrders(ctx context.Context, maxAge time.Duration) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) SearchByDiffs(ctx context.Context, filter ordersvc.DiffFilter) ([]models.Order, error) {
	return nil, nil
}

func TestOrdersCreateFromCartReturnsCreated(t *testing.T) {
	var gotInput ordersvc.ConvertCartInput
	svc := &stubOrdersService{
		convertCart: func(_ context.Context, caller acl.Caller, input ordersvc.ConvertCartInput) ([]models.Order, error) {
			if caller.UserID == nil || *caller.UserID != 7 {
				t.Fatalf("expected caller user 7, got %+v", caller.UserID)
			}
			gotInput = input
			return []models.Order{{ID: uuid.New(), Slug: 9, Customer: input.UserID}}, nil
		},
	}

	body := `{
		"user_id": 7,
		"receiver_name": "Jane Roe",
		"receiver_phone": "+15550100",
		"prices": {"55": {"price": "12.5", "currency": "STQ"}}
	}`
	handler := OrdersCreateFromCart(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/orders/create_from_cart", strings.NewReader(body)), userCaller(7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.UserID != 7 || gotInput.ReceiverName != "Jane Roe" {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	price, ok := gotInput.Prices[55]
	if !ok || price.Currency != enums.CurrencySTQ {
		t.Fatalf("expected price for product 55, got %+v", gotInput.Prices)
	}
}

func TestOrdersCreateFromCartValidatesBody(t *testing.T) {
	handler := OrdersCreateFromCart(&stubOrdersService{}, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/orders/create_from_cart", strings.NewReader(`{"user_id":7}`)), userCaller(7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["receiver_name"]; !ok {
		t.Fatalf("expected receiver_name in details, got %+v", payload.Error.Details)
	}
}

func TestOrdersRevertConversion(t *testing.T) {
	conversionID := uuid.New()
	var gotID uuid.UUID
	svc := &stubOrdersService{
		revertConversion: func(_ context.Context, _ acl.Caller, id uuid.UUID) error {
			gotID = id
			return nil
		},
	}

	handler := OrdersRevertConversion(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/orders/create_from_cart/revert",
		strings.NewReader(`{"conversion_id":"`+conversionID.String()+`"}`)), userCaller(7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotID != conversionID {
		t.Fatalf("expected conversion %s got %s", conversionID, gotID)
	}
}

func TestOrdersSearchPassesTerms(t *testing.T) {
	var gotTerms ordersvc.SearchTerms
	svc := &stubOrdersService{
		search: func(_ context.Context, _ acl.Caller, terms ordersvc.SearchTerms) ([]models.Order, error) {
			gotTerms = terms
			return []models.Order{}, nil
		},
	}

	handler := OrdersSearch(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/orders/search",
		strings.NewReader(`{"slug":31,"state":"paid"}`)), userCaller(7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotTerms.Slug == nil || *gotTerms.Slug != 31 {
		t.Fatalf("expected slug term 31, got %+v", gotTerms.Slug)
	}
	if gotTerms.State == nil || *gotTerms.State != enums.OrderStatePaid {
		t.Fatalf("expected state term paid, got %+v", gotTerms.State)
	}
}

func TestOrdersListMineRequiresUser(t *testing.T) {
	handler := OrdersListMine(&stubOrdersService{}, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/orders", nil), sessionCaller(uuid.New()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrdersByStoreParsesID(t *testing.T) {
	var gotStore int64
	svc := &stubOrdersService{
		listByStore: func(_ context.Context, _ acl.Caller, storeID int64) ([]models.Order, error) {
			gotStore = storeID
			return []models.Order{}, nil
		},
	}

	handler := OrdersByStore(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/orders/by-store/12", nil), userCaller(7))
	req = withURLParam(req, "storeID", "12")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotStore != 12 {
		t.Fatalf("expected store 12 got %d", gotStore)
	}
}

func TestOrderByIDRejectsBadUUID(t *testing.T) {
	handler := OrderByID(&stubOrdersService{}, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/orders/by-id/nope", nil), userCaller(7))
	req = withURLParam(req, "orderID", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderByIDMapsNotFound(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		getByID: func(_ context.Context, _ acl.Caller, _ uuid.UUID) (models.Order, error) {
			return models.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	handler := OrderByID(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/orders/by-id/"+orderID.String(), nil), userCaller(7))
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderBySlugParsesSlug(t *testing.T) {
	var gotSlug int64
	svc := &stubOrdersService{
		getBySlug: func(_ context.Context, _ acl.Caller, slug int64) (models.Order, error) {
			gotSlug = slug
			return models.Order{Slug: slug}, nil
		},
	}

	handler := OrderBySlug(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/orders/by-slug/1207", nil), userCaller(7))
	req = withURLParam(req, "orderSlug", "1207")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotSlug != 1207 {
		t.Fatalf("expected slug 1207 got %d", gotSlug)
	}
}

func TestOrderSetStatusBuildsInput(t *testing.T) {
	orderID := uuid.New()
	var gotInput ordersvc.SetStateInput
	svc := &stubOrdersService{
		setOrderState: func(_ context.Context, _ acl.Caller, input ordersvc.SetStateInput) (models.Order, error) {
			gotInput = input
			return models.Order{ID: input.ID, State: input.State}, nil
		},
	}

	body := `{"state":"sent","track_id":"1Z999","delivery_company":"UPS"}`
	handler := OrderSetStatus(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPut, "/orders/by-id/"+orderID.String()+"/status", strings.NewReader(body)), userCaller(7))
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.ID != orderID || gotInput.State != enums.OrderStateSent {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	if gotInput.TrackID == nil || *gotInput.TrackID != "1Z999" {
		t.Fatalf("expected track id to pass through, got %+v", gotInput.TrackID)
	}
	if gotInput.DeliveryCompany == nil || *gotInput.DeliveryCompany != "UPS" {
		t.Fatalf("expected delivery company to pass through, got %+v", gotInput.DeliveryCompany)
	}
}

func TestOrderSetStatusMapsStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		setOrderState: func(_ context.Context, _ acl.Caller, _ ordersvc.SetStateInput) (models.Order, error) {
			return models.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from complete to paid")
		},
	}

	handler := OrderSetStatus(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodPut, "/orders/by-id/"+orderID.String()+"/status",
		strings.NewReader(`{"state":"paid"}`)), userCaller(7))
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestOrderDiffsByIDReturnsHistory(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		listDiffs: func(_ context.Context, _ acl.Caller, id uuid.UUID) ([]models.OrderDiff, error) {
			if id != orderID {
				t.Fatalf("expected order %s got %s", orderID, id)
			}
			return []models.OrderDiff{
				{Parent: orderID, State: enums.OrderStateNew},
				{Parent: orderID, State: enums.OrderStatePaid},
			}, nil
		},
	}

	handler := OrderDiffsByID(svc, nil)
	req := withCaller(httptest.NewRequest(http.MethodGet, "/order_diff/by-id/"+orderID.String(), nil), userCaller(7))
	req = withURLParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Data []models.OrderDiff `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) != 2 || body.Data[1].State != enums.OrderStatePaid {
		t.Fatalf("unexpected diffs %+v", body.Data)
	}
}
