package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/api/middleware"
	"github.com/atelierhq/atelier-backend/internal/cart"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

type stubCartService struct {
	state     cart.State
	addInput  cart.AddItemInput
	productID uuid.UUID
	quantity  int
	err       error
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (cart.State, error) {
	return s.state, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (cart.State, error) {
	s.addInput = input
	return s.state, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int) (cart.State, error) {
	s.productID = productID
	s.quantity = quantity
	return s.state, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (cart.State, error) {
	s.productID = productID
	return s.state, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) (cart.State, error) {
	return s.state, s.err
}

func (s *stubCartService) ConvertActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return s.err
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestCartFetchRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestCartFetchReturnsDerivedTotals(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{state: cart.State{Lines: []cart.Line{
		{ProductID: productID, Name: "Wool Overcoat", Price: decimal.RequireFromString("185.00"), Size: "M", Color: "Camel", Quantity: 2},
	}}}

	rec := httptest.NewRecorder()
	CartFetch(svc, testLogger()).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	payload := envelope.Data.(map[string]any)
	if payload["total"] != "370.00" {
		t.Fatalf("expected total 370.00 got %v", payload["total"])
	}
	if payload["count"] != float64(2) {
		t.Fatalf("expected count 2 got %v", payload["count"])
	}
}

func TestCartAddForwardsInput(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{}

	body := `{"product_id":"` + productID.String() + `","size":"M","color":"Camel","quantity":2}`
	rec := httptest.NewRecorder()
	CartAdd(svc, testLogger()).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.addInput.ProductID != productID {
		t.Fatalf("expected product id %s got %s", productID, svc.addInput.ProductID)
	}
	if svc.addInput.Quantity != 2 || svc.addInput.Size != "M" || svc.addInput.Color != "Camel" {
		t.Fatalf("unexpected input %+v", svc.addInput)
	}
}

func TestCartAddRejectsMalformedProductID(t *testing.T) {
	rec := httptest.NewRecorder()
	CartAdd(&stubCartService{}, testLogger()).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"not-a-uuid"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCartUpdateQuantityForwardsBareProductID(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{}

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	rec := httptest.NewRecorder()
	CartUpdateQuantity(svc, testLogger()).ServeHTTP(rec, authedRequest(http.MethodPut, "/api/v1/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.productID != productID || svc.quantity != 3 {
		t.Fatalf("unexpected forwarded values %s %d", svc.productID, svc.quantity)
	}
}

func TestCartRemoveForwardsBareProductID(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{}

	body := `{"product_id":"` + productID.String() + `"}`
	rec := httptest.NewRecorder()
	CartRemove(svc, testLogger()).ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/cart/items", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.productID != productID {
		t.Fatalf("expected product id %s got %s", productID, svc.productID)
	}
}

func TestCartUpdateQuantityRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	CartUpdateQuantity(&stubCartService{}, testLogger()).ServeHTTP(rec, authedRequest(http.MethodPut, "/api/v1/cart/items", `{"product_id":"`+uuid.NewString()+`","qty":3}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
