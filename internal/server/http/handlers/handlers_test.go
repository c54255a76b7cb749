package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/marketplace/internal/test"
	"github.com/polkiloo/marketplace/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asUser(userID int64, role model.Role) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, userID)
		c.Set(middleware.UserRoleContextKey, role)
	}
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserID(c); got != 0 {
		t.Fatalf("expected 0 when not set, got %d", got)
	}

	c.Set(middleware.UserIDContextKey, int64(42))
	if got := CurrentUserID(c); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestCurrentUserRole(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentUserRole(c); got != "" {
		t.Fatalf("expected empty role when not set, got %s", got)
	}

	c.Set(middleware.UserRoleContextKey, model.RoleSeller)
	if got := CurrentUserRole(c); got != model.RoleSeller {
		t.Fatalf("expected seller, got %s", got)
	}
}

func TestAuthHandlerRegisterCustomer(t *testing.T) {
	login := testhelpers.RandomASCIIString(7, 14)
	password := testhelpers.RandomASCIIString(16, 32)
	body, _ := json.Marshal(dto.AuthRequest{Login: login, Password: password})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{
		RegisterFn: func(ctx context.Context, gotLogin, gotPassword string, role model.Role) (string, error) {
			if gotLogin != login || gotPassword != password {
				t.Fatalf("unexpected credentials passed to facade: %q %q", gotLogin, gotPassword)
			}
			if role != model.RoleCustomer {
				t.Fatalf("expected customer role, got %s", role)
			}
			return "session-token", nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/register/customer", "/register/customer", handler.RegisterCustomer, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("unexpected authorization header %q", got)
	}
}

func TestAuthHandlerRegisterSellerPassesRole(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "seller", Password: "pass"})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{
		RegisterFn: func(_ context.Context, _, _ string, role model.Role) (string, error) {
			if role != model.RoleSeller {
				t.Fatalf("expected seller role, got %s", role)
			}
			return "token", nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/register/seller", "/register/seller", handler.RegisterSeller, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAuthHandlerRegisterErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", domainErrors.ErrInvalidCredentials, http.StatusBadRequest},
		{"duplicate login", domainErrors.ErrAlreadyExists, http.StatusConflict},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
			handler := NewAuthHandler(testhelpers.AuthFacadeStub{
				RegisterFn: func(context.Context, string, string, model.Role) (string, error) {
					return "", tc.err
				},
			})
			resp := performRequest(t, http.MethodPost, "/register/customer", "/register/customer", handler.RegisterCustomer, nil, body)
			if resp.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestAuthHandlerRegisterMalformedBody(t *testing.T) {
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/register/customer", "/register/customer", handler.RegisterCustomer, nil, []byte("{"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.AuthRequest{Login: "user", Password: "pass"})
	handler := NewAuthHandler(testhelpers.AuthFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	handler = NewAuthHandler(testhelpers.AuthFacadeStub{
		AuthenticateFn: func(context.Context, string, string) (string, error) {
			return "", domainErrors.ErrInvalidCredentials
		},
	})
	resp = performRequest(t, http.MethodPost, "/login", "/login", handler.Login, nil, body)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestCatalogHandlerCreate(t *testing.T) {
	body, _ := json.Marshal(dto.CreateProductRequest{Name: "widget", Price: "19.99", Stock: 5})
	handler := NewCatalogHandler(testhelpers.CatalogFacadeStub{
		CreateFn: func(_ context.Context, sellerID int64, role model.Role, in usecase.CreateProductInput) (*model.Product, error) {
			if sellerID != 9 || role != model.RoleSeller {
				t.Fatalf("unexpected caller: %d %s", sellerID, role)
			}
			if in.Price.StringFixed(2) != "19.99" {
				t.Fatalf("unexpected price %s", in.Price)
			}
			return &model.Product{ID: 1, SellerID: sellerID, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/products", "/products", handler.Create, asUser(9, model.RoleSeller), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	var product dto.ProductResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &product); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if product.Price != "19.99" {
		t.Fatalf("unexpected price %s", product.Price)
	}
}

func TestCatalogHandlerCreateForbiddenForCustomer(t *testing.T) {
	body, _ := json.Marshal(dto.CreateProductRequest{Name: "widget", Price: "1.00"})
	handler := NewCatalogHandler(testhelpers.CatalogFacadeStub{
		CreateFn: func(context.Context, int64, model.Role, usecase.CreateProductInput) (*model.Product, error) {
			return nil, domainErrors.ErrUnauthorized
		},
	})
	resp := performRequest(t, http.MethodPost, "/products", "/products", handler.Create, asUser(1, model.RoleCustomer), body)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestCatalogHandlerCreateBadPrice(t *testing.T) {
	body, _ := json.Marshal(dto.CreateProductRequest{Name: "widget", Price: "nineteen"})
	handler := NewCatalogHandler(testhelpers.CatalogFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/products", "/products", handler.Create, asUser(1, model.RoleSeller), body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
}

func TestCatalogHandlerGetAndList(t *testing.T) {
	handler := NewCatalogHandler(testhelpers.CatalogFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/products/:id", "/products/7", handler.Get, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/products/:id", "/products/abc", handler.Get, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for bad id, got %d", resp.Code)
	}

	handler = NewCatalogHandler(testhelpers.CatalogFacadeStub{
		ProductFn: func(context.Context, int64) (*model.Product, error) {
			return nil, domainErrors.ErrNotFound
		},
	})
	resp = performRequest(t, http.MethodGet, "/products/:id", "/products/7", handler.Get, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}

	handler = NewCatalogHandler(testhelpers.CatalogFacadeStub{})
	resp = performRequest(t, http.MethodGet, "/products", "/products?page=2&page_size=5", handler.List, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var page dto.ProductsPageResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if page.Page != 2 || page.PageSize != 5 {
		t.Fatalf("unexpected paging: %+v", page)
	}
}

func placeOrderBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(dto.PlaceOrderRequest{
		Lines: []dto.LineRequest{{ProductID: 1, Quantity: 2}},
		ShippingAddress: dto.ShippingAddressRequest{
			Name: "Ann", Phone: "555", Address: "Main st 1",
		},
		ShippingMethod: "standard",
		PaymentMethod:  "card",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestOrderHandlerPlaceCreated(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(_ context.Context, userID int64, in usecase.PlaceOrderInput) (*model.Order, error) {
			if userID != 3 {
				t.Fatalf("unexpected user %d", userID)
			}
			if len(in.Lines) != 1 || in.Lines[0].ProductID != 1 || in.Lines[0].Quantity != 2 {
				t.Fatalf("unexpected lines: %+v", in.Lines)
			}
			if in.Shipping.Name != "Ann" {
				t.Fatalf("unexpected shipping: %+v", in.Shipping)
			}
			return &model.Order{ID: 1, UserID: userID, Number: "ORD-1", Status: model.OrderStatusPending}, nil
		},
	})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Place, asUser(3, model.RoleCustomer), placeOrderBody(t))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	var order dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &order); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if order.Status != "pending" {
		t.Fatalf("unexpected status %s", order.Status)
	}
}

func TestOrderHandlerPlaceRejectsUnknownFields(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(context.Context, int64, usecase.PlaceOrderInput) (*model.Order, error) {
			t.Fatal("facade must not be called for malformed body")
			return nil, nil
		},
	})
	body := []byte(`{"lines":[{"product_id":1,"quantity":1}],"is_admin":true}`)
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Place, asUser(3, model.RoleCustomer), body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for unknown field, got %d", resp.Code)
	}
}

func TestOrderHandlerPlaceValidation(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(context.Context, int64, usecase.PlaceOrderInput) (*model.Order, error) {
			t.Fatal("facade must not be called for invalid body")
			return nil, nil
		},
	})
	body := []byte(`{"lines":[]}`)
	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Place, asUser(3, model.RoleCustomer), body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
	var validation dto.ValidationErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &validation); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if _, ok := validation.Errors["lines"]; !ok {
		t.Fatalf("expected lines error, got %+v", validation.Errors)
	}
}

func TestOrderHandlerPlaceBusinessErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown product", domainErrors.ErrProductNotFound, http.StatusBadRequest},
		{"insufficient stock", domainErrors.InsufficientStockError{ProductID: 1, Requested: 5, Available: 2}, http.StatusBadRequest},
		{"invalid quantity", domainErrors.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{
				PlaceFn: func(context.Context, int64, usecase.PlaceOrderInput) (*model.Order, error) {
					return nil, tc.err
				},
			})
			resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Place, asUser(3, model.RoleCustomer), placeOrderBody(t))
			if resp.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestOrderHandlerGet(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		OrderFn: func(_ context.Context, userID, orderID int64) (*model.Order, error) {
			if userID != 3 || orderID != 5 {
				t.Fatalf("unexpected arguments: %d %d", userID, orderID)
			}
			return &model.Order{ID: 5, UserID: 3, Status: model.OrderStatusPending}, nil
		},
	})
	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/5", handler.Get, asUser(3, model.RoleCustomer), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	handler = NewOrderHandler(testhelpers.OrderFacadeStub{
		OrderFn: func(context.Context, int64, int64) (*model.Order, error) {
			return nil, domainErrors.ErrUnauthorized
		},
	})
	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/5", handler.Get, asUser(4, model.RoleCustomer), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-owner, got %d", resp.Code)
	}

	handler = NewOrderHandler(testhelpers.OrderFacadeStub{
		OrderFn: func(context.Context, int64, int64) (*model.Order, error) {
			return nil, domainErrors.ErrNotFound
		},
	})
	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/5", handler.Get, asUser(3, model.RoleCustomer), nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestOrderHandlerListEndpoints(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{})

	for _, tc := range []struct {
		name    string
		handler gin.HandlerFunc
	}{
		{"list", handler.List},
		{"history", handler.History},
		{"pending", handler.Pending},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodGet, "/orders", "/orders?page=1&page_size=20", tc.handler, asUser(3, model.RoleCustomer), nil)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", resp.Code)
			}
			var page dto.OrdersPageResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if page.PageSize != 20 {
				t.Fatalf("unexpected page size %d", page.PageSize)
			}
		})
	}
}

func TestOrderHandlerUpdateStatus(t *testing.T) {
	body := []byte(`{"status":"processing"}`)
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		UpdateStatusFn: func(_ context.Context, userID, orderID int64, status model.OrderStatus) (*model.Order, error) {
			if status != model.OrderStatusProcessing {
				t.Fatalf("unexpected status %s", status)
			}
			return &model.Order{ID: orderID, UserID: userID, Status: status}, nil
		},
	})
	resp := performRequest(t, http.MethodPatch, "/orders/:id/status", "/orders/5/status", handler.UpdateStatus, asUser(3, model.RoleCustomer), body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestOrderHandlerUpdateStatusErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown status", domainErrors.ErrInvalidStatus, http.StatusUnprocessableEntity},
		{"illegal transition", domainErrors.ErrIllegalTransition, http.StatusBadRequest},
		{"non-owner", domainErrors.ErrUnauthorized, http.StatusForbidden},
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{
				UpdateStatusFn: func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error) {
					return nil, tc.err
				},
			})
			body := []byte(`{"status":"processing"}`)
			resp := performRequest(t, http.MethodPatch, "/orders/:id/status", "/orders/5/status", handler.UpdateStatus, asUser(3, model.RoleCustomer), body)
			if resp.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestOrderHandlerUpdateStatusRejectsUnknownFields(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{
		UpdateStatusFn: func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error) {
			t.Fatal("facade must not be called for malformed body")
			return nil, nil
		},
	})
	body := []byte(`{"status":"processing","user_id":99}`)
	resp := performRequest(t, http.MethodPatch, "/orders/:id/status", "/orders/5/status", handler.UpdateStatus, asUser(3, model.RoleCustomer), body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 for unknown field, got %d", resp.Code)
	}
}

func TestOrderHandlerCancel(t *testing.T) {
	handler := NewOrderHandler(testhelpers.OrderFacadeStub{})
	resp := performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/5/cancel", handler.Cancel, asUser(3, model.RoleCustomer), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var order dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &order); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if order.Status != "cancelled" {
		t.Fatalf("unexpected status %s", order.Status)
	}
}

func TestOrderHandlerCancelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already cancelled", domainErrors.ErrOrderNotCancellable, http.StatusBadRequest},
		{"non-owner", domainErrors.ErrUnauthorized, http.StatusForbidden},
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(testhelpers.OrderFacadeStub{
				CancelFn: func(context.Context, int64, int64) (*model.Order, error) {
					return nil, tc.err
				},
			})
			resp := performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/5/cancel", handler.Cancel, asUser(3, model.RoleCustomer), nil)
			if resp.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, 10},
		{"?page=3&page_size=30", 3, 30},
		{"?page=-1&page_size=0", 1, 10},
		{"?page=abc&page_size=xyz", 1, 10},
		{"?page_size=500", 1, 100},
	}
	for _, tc := range cases {
		var page, pageSize int
		resp := performRequest(t, http.MethodGet, "/x", "/x"+tc.query, func(c *gin.Context) {
			page, pageSize = pageParams(c)
			c.Status(http.StatusOK)
		}, nil, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("unexpected status %d", resp.Code)
		}
		if page != tc.wantPage || pageSize != tc.wantPageSize {
			t.Fatalf("query %q: got (%d, %d), want (%d, %d)", tc.query, page, pageSize, tc.wantPage, tc.wantPageSize)
		}
	}
}
