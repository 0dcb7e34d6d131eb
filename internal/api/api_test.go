package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"eshop/internal/entity"
	"eshop/internal/service"
	"eshop/internal/testutil"
)

type testServer struct {
	e      *echo.Echo
	store  *testutil.Store
	images *testutil.Images
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewStore()
	images := testutil.NewImages()
	rates, err := service.NewRateTable("Kč", map[string]string{"€": "0.04"})
	if err != nil {
		t.Fatalf("NewRateTable: %v", err)
	}
	auth := service.NewAuthService(store, rates, service.AuthConfig{Secret: "api-test", TTL: time.Hour, BcryptCost: 10})
	e := NewServer(ServerConfig{RequestTimeout: 5 * time.Second}, Services{
		Auth:    auth,
		Catalog: service.NewCatalogService(store, rates, images),
		Orders:  service.NewOrderService(store, store, testutil.NewKeys(), nil),
		Admin:   service.NewAdminService(store, store, nil),
	})
	return &testServer{e: e, store: store, images: images}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in a user, returning its id and token.
func (s *testServer) signup(t *testing.T, username string, admin bool) (int, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username, "password": "pw-" + username, "email": username + "@example.com", "currency": "Kč",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body)
	}
	users, _ := s.store.ListUsers(context.Background())
	id := users[len(users)-1].ID
	if admin {
		s.store.SetAdmin(id, true)
	}

	rec = s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": "pw-" + username})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body)
	}
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	decode(t, rec, &out)
	if !out.Success || out.Token == "" {
		t.Fatalf("unexpected login response %s", rec.Body)
	}
	return id, out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	decode(t, rec, &out)
	return out["error"]
}

func TestRegisterLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice", false)

	rec := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "Invalid credentials" {
		t.Fatalf("expected 401 Invalid credentials, got %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "x", "email": "a@x.io"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "bob"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d %s", rec.Code, rec.Body)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	_, customer := s.signup(t, "alice", false)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/admin/products"},
		{http.MethodPut, "/api/admin/orders/1"},
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/sales-stats"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := s.do(t, r.method, r.path, "", map[string]string{})
			if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "No token" {
				t.Fatalf("unauthenticated: got %d %s", rec.Code, rec.Body)
			}
			rec = s.do(t, r.method, r.path, "garbage", map[string]string{})
			if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "Unauthorized" {
				t.Fatalf("bad token: got %d %s", rec.Code, rec.Body)
			}
			rec = s.do(t, r.method, r.path, customer, map[string]string{})
			if rec.Code != http.StatusForbidden {
				t.Fatalf("non-admin: got %d %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestListUsersHidesPasswords(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice", false)
	_, admin := s.signup(t, "root", true)

	rec := s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if strings.Contains(body, "pass") || strings.Contains(body, "$2") {
		t.Fatalf("user listing leaks password data: %s", body)
	}
	var users []entity.UserSummary
	decode(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %+v", users)
	}
}

func TestOrderFlow(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.signup(t, "alice", false)
	_, admin := s.signup(t, "root", true)
	widget := s.store.AddProduct(entity.Product{Name: "Widget", Price: 100, Stock: 5})
	items := []map[string]int{{"productId": widget.ID, "quantity": 3}}

	rec := s.do(t, http.MethodPost, "/api/order", "", map[string]interface{}{"cartItems": items})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/order", token, map[string]interface{}{"userId": alice, "cartItems": items})
	if rec.Code != http.StatusOK {
		t.Fatalf("first order: %d %s", rec.Code, rec.Body)
	}
	if s.store.Product(widget.ID).Stock != 2 {
		t.Fatalf("expected stock 2, got %d", s.store.Product(widget.ID).Stock)
	}

	rec = s.do(t, http.MethodPost, "/api/order", token, map[string]interface{}{"cartItems": items})
	if rec.Code != http.StatusBadRequest || !strings.Contains(errorOf(t, rec), "insufficient stock") {
		t.Fatalf("second order: %d %s", rec.Code, rec.Body)
	}
	if s.store.Product(widget.ID).Stock != 2 {
		t.Fatal("rejected order changed stock")
	}

	orders := s.store.Orders()
	if len(orders) != 1 || orders[0].Status != entity.OrderStatusPending {
		t.Fatalf("unexpected orders %+v", orders)
	}
	path := fmt.Sprintf("/api/admin/orders/%d", orders[0].ID)

	rec = s.do(t, http.MethodPut, path, admin, map[string]string{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body)
	}
	rec = s.do(t, http.MethodPut, path, admin, map[string]string{"status": "cancelled"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for completed -> cancelled, got %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/admin/sales-stats", admin, nil)
	var stats []entity.SalesStat
	decode(t, rec, &stats)
	if len(stats) != 1 || stats[0].Name != "Widget" || stats[0].TotalSold != 3 {
		t.Fatalf("unexpected stats %s", rec.Body)
	}
}

func TestBodyUserIDMustMatchToken(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.signup(t, "alice", false)
	bob, _ := s.signup(t, "bob", false)
	_, admin := s.signup(t, "root", true)
	widget := s.store.AddProduct(entity.Product{Name: "Widget", Price: 100, Stock: 5})

	rec := s.do(t, http.MethodPost, "/api/cart", aliceToken, map[string]int{"userId": bob, "productId": widget.ID, "quantity": 1})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("spoofed userId: expected 403, got %d %s", rec.Code, rec.Body)
	}
	rec = s.do(t, http.MethodPost, "/api/order", aliceToken, map[string]interface{}{
		"userId": bob, "cartItems": []map[string]int{{"productId": widget.ID, "quantity": 1}},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("spoofed order userId: expected 403, got %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/cart", aliceToken, map[string]int{"productId": widget.ID, "quantity": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("own cart: %d %s", rec.Code, rec.Body)
	}
	rec = s.do(t, http.MethodPost, "/api/cart", admin, map[string]int{"userId": bob, "productId": widget.ID, "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin for bob: %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/cart", aliceToken, nil)
	var cart []entity.CartItem
	decode(t, rec, &cart)
	if len(cart) != 1 || cart[0].UserID != alice || cart[0].Quantity != 2 {
		t.Fatalf("unexpected cart %s", rec.Body)
	}
}

func TestIdempotentOrder(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "alice", false)
	widget := s.store.AddProduct(entity.Product{Name: "Widget", Price: 100, Stock: 5})

	send := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]interface{}{"cartItems": []map[string]int{{"productId": widget.ID, "quantity": 1}}})
		req := httptest.NewRequest(http.MethodPost, "/api/order", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first: %d %s", rec.Code, rec.Body)
	}
	if rec := send(); rec.Code != http.StatusConflict {
		t.Fatalf("replay: expected 409, got %d %s", rec.Code, rec.Body)
	}
	if s.store.Product(widget.ID).Stock != 4 {
		t.Fatalf("expected stock 4, got %d", s.store.Product(widget.ID).Stock)
	}
}

func TestProductsCurrency(t *testing.T) {
	s := newTestServer(t)
	tools := s.store.AddCategory("Tools")
	s.store.AddProduct(entity.Product{Name: "Widget", Price: 100, Stock: 5, CategoryID: &tools})

	rec := s.do(t, http.MethodGet, "/api/products?currency=%E2%82%AC&category=Tools&search=Wid", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}
	var products []entity.Product
	decode(t, rec, &products)
	if len(products) != 1 || products[0].Price != 4 {
		t.Fatalf("unexpected products %s", rec.Body)
	}

	rec = s.do(t, http.MethodGet, "/api/products?currency=USD", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown currency, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/products/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateProductMultipart(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.signup(t, "root", true)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"name": "Lamp", "description": "bright", "price": "2", "stock": "7", "currency": "€"} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("image", "lamp.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("png-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+admin)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}

	var out struct {
		Success bool           `json:"success"`
		Product entity.Product `json:"product"`
	}
	decode(t, rec, &out)
	stored := s.store.Product(out.Product.ID)
	if stored.Price != 50 || stored.Stock != 7 || stored.Image == nil {
		t.Fatalf("unexpected stored product %+v", stored)
	}
	if got := s.images.Files()[*stored.Image]; string(got) != "png-bytes" {
		t.Fatalf("image not stored, got %q", got)
	}
}

func TestCreateProductJSONWithoutImage(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.signup(t, "root", true)

	rec := s.do(t, http.MethodPost, "/api/admin/products", admin, map[string]interface{}{"name": "Mug", "price": 80, "stock": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	rec = s.do(t, http.MethodPost, "/api/admin/products", admin, map[string]interface{}{"name": "", "price": 80})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body)
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound || errorOf(t, rec) == "" {
		t.Fatalf("unknown route: %d %s", rec.Code, rec.Body)
	}
}
