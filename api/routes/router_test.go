package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storiqateam/stq-orders/internal/acl"
	ordersvc "github.com/storiqateam/stq-orders/internal/orders"
	rolesvc "github.com/storiqateam/stq-orders/internal/roles"
	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/db/models"
	"github.com/storiqateam/stq-orders/pkg/enums"
	"github.com/storiqateam/stq-orders/pkg/logger"
	"github.com/storiqateam/stq-orders/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubRoleLister struct {
	roles map[int64][]models.Role
}

func (s stubRoleLister) ListByUser(_ context.Context, userID int64) ([]models.Role, error) {
	if s.roles == nil {
		return nil, nil
	}
	return s.roles[userID], nil
}

type stubCartService struct {
	getCart func(ctx context.Context, customer models.Customer) ([]models.CartItem, error)
	merge   func(ctx context.Context, from, to models.Customer) ([]models.CartItem, error)
}

func (s stubCartService) GetCart(ctx context.Context, customer models.Customer) ([]models.CartItem, error) {
	if s.getCart != nil {
		return s.getCart(ctx, customer)
	}
	return []models.CartItem{}, nil
}

func (stubCartService) IncrementItem(context.Context, models.Customer, int64, int64) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) SetQuantity(context.Context, models.Customer, int64, int) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) SetSelection(context.Context, models.Customer, int64, bool) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) SetComment(context.Context, models.Customer, int64, string) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) DeleteItem(context.Context, models.Customer, int64) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) ClearCart(context.Context, models.Customer) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) List(context.Context, models.Customer, int64, int) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (s stubCartService) Merge(ctx context.Context, from, to models.Customer) ([]models.CartItem, error) {
	if s.merge != nil {
		return s.merge(ctx, from, to)
	}
	return []models.CartItem{}, nil
}

type stubOrdersService struct {
	listByCustomer func(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error)
	setOrderState  func(ctx context.Context, caller acl.Caller, input ordersvc.SetStateInput) (models.Order, error)
}

func (stubOrdersService) ConvertCart(context.Context, acl.Caller, ordersvc.ConvertCartInput) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) RevertConversion(context.Context, acl.Caller, uuid.UUID) error {
	return nil
}

func (s stubOrdersService) SetOrderState(ctx context.Context, caller acl.Caller, input ordersvc.SetStateInput) (models.Order, error) {
	if s.setOrderState != nil {
		return s.setOrderState(ctx, caller, input)
	}
	return models.Order{}, nil
}

func (stubOrdersService) GetByID(context.Context, acl.Caller, uuid.UUID) (models.Order, error) {
	return models.Order{}, nil
}

func (stubOrdersService) GetBySlug(context.Context, acl.Caller, int64) (models.Order, error) {
	return models.Order{}, nil
}

func (s stubOrdersService) ListByCustomer(ctx context.Context, caller acl.Caller, userID int64) ([]models.Order, error) {
	if s.listByCustomer != nil {
		return s.listByCustomer(ctx, caller, userID)
	}
	return []models.Order{}, nil
}

func (stubOrdersService) ListByStore(context.Context, acl.Caller, int64) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) Search(context.Context, acl.Caller, ordersvc.SearchTerms) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) ListDiffs(context.Context, acl.Caller, uuid.UUID) ([]models.OrderDiff, error) {
	return []models.OrderDiff{}, nil
}

func (stubOrdersService) GetOrdersWithState(context.Context, enums.OrderState, time.Duration) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) TrackDeliveredOrders(context.Context, time.Duration) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) SearchByDiffs(context.Context, ordersvc.DiffFilter) ([]models.Order, error) {
	return nil, nil
}

type stubRolesService struct{}

func (stubRolesService) ListByUser(context.Context, acl.Caller, int64) ([]models.Role, error) {
	return []models.Role{}, nil
}

func (stubRolesService) OwnRoles(context.Context, acl.Caller) ([]models.Role, error) {
	return []models.Role{}, nil
}

func (stubRolesService) Grant(context.Context, acl.Caller, rolesvc.GrantInput) (*models.Role, error) {
	return &models.Role{}, nil
}

func (stubRolesService) Revoke(context.Context, acl.Caller, int64, enums.UserRole) ([]models.Role, error) {
	return []models.Role{}, nil
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

type routerOverrides struct {
	cart   stubCartService
	orders stubOrdersService
	roles  map[int64][]models.Role
}

func newTestRouter(o routerOverrides) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubRoleLister{roles: o.roles},
		o.cart,
		o.orders,
		stubRolesService{},
	)
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestCartRequiresIdentity(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers got %d", resp.Code)
	}
}

func TestCartAcceptsSessionIdentity(t *testing.T) {
	session := uuid.New()
	var got models.Customer
	router := newTestRouter(routerOverrides{
		cart: stubCartService{
			getCart: func(_ context.Context, customer models.Customer) ([]models.CartItem, error) {
				got = customer
				return []models.CartItem{{ProductID: 5, StoreID: 2, Quantity: 1, Selected: true}}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Session-Id", session.String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if !got.IsSession() || got.SessionID.String() != session.String() {
		t.Fatalf("expected session customer %s got %+v", session, got)
	}
	var envelope struct {
		Data []models.CartItem `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ProductID != 5 {
		t.Fatalf("unexpected cart payload %+v", envelope.Data)
	}
}

func TestCartMergeRejectsSessionOnlyCaller(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	body := `{"user_from":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/cart/merge", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for session-only merge got %d", resp.Code)
	}
}

func TestCartMergeAcceptsAuthenticatedUser(t *testing.T) {
	sessionFrom := uuid.New()
	var gotFrom, gotTo models.Customer
	router := newTestRouter(routerOverrides{
		cart: stubCartService{
			merge: func(_ context.Context, from, to models.Customer) ([]models.CartItem, error) {
				gotFrom, gotTo = from, to
				return []models.CartItem{}, nil
			},
		},
	})

	body := `{"user_from":"` + sessionFrom.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/cart/merge", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if !gotFrom.IsSession() || gotFrom.SessionID.String() != sessionFrom.String() {
		t.Fatalf("expected merge source session %s got %+v", sessionFrom, gotFrom)
	}
	if !gotTo.IsUser() || *gotTo.UserID != 42 {
		t.Fatalf("expected merge target user 42 got %+v", gotTo)
	}
}

func TestOrdersRequireAuthenticatedUser(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	anonymous := httptest.NewRequest(http.MethodGet, "/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous orders got %d", resp.Code)
	}

	sessionOnly := httptest.NewRequest(http.MethodGet, "/orders", nil)
	sessionOnly.Header.Set("X-Session-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, sessionOnly)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for session-only orders got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/orders", nil)
	authed.Header.Set("Authorization", "7")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed orders got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestOrdersListUsesCallerID(t *testing.T) {
	var gotUser int64
	router := newTestRouter(routerOverrides{
		orders: stubOrdersService{
			listByCustomer: func(_ context.Context, _ acl.Caller, userID int64) ([]models.Order, error) {
				gotUser = userID
				return []models.Order{}, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "1207")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != 1207 {
		t.Fatalf("expected caller id 1207 got %d", gotUser)
	}
}

func TestOrderStatusRouteCarriesParams(t *testing.T) {
	orderID := uuid.New()
	var got ordersvc.SetStateInput
	router := newTestRouter(routerOverrides{
		orders: stubOrdersService{
			setOrderState: func(_ context.Context, _ acl.Caller, input ordersvc.SetStateInput) (models.Order, error) {
				got = input
				return models.Order{ID: input.ID, State: input.State}, nil
			},
		},
	})

	body := `{"state":"sent","track_id":"1Z20260825","delivery_company":"UPS"}`
	req := httptest.NewRequest(http.MethodPut, "/orders/by-id/"+orderID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if got.ID != orderID {
		t.Fatalf("expected order id %s got %s", orderID, got.ID)
	}
	if got.State != enums.OrderStateSent || got.TrackID == nil || *got.TrackID != "1Z20260825" {
		t.Fatalf("unexpected state input %+v", got)
	}
}

func TestMalformedIdentityHeaderRejected(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "not-a-number")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed Authorization got %d", resp.Code)
	}
}

func TestRolesRequireAuthenticatedUser(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous roles got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/roles", nil)
	authed.Header.Set("Authorization", "5")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed roles got %d", resp.Code)
	}
}
