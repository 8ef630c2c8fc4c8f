package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, "https://cdn.example", zap.NewNop(), opts...)
}

func TestClient_GetProductList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/product" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(headerRequestID) == "" {
			t.Error("missing request id header")
		}
		_, _ = w.Write([]byte(`{"total":3,"items":[
			{"id":"a","category":"софт-скил","title":"+1 час в сутках","image":"/a.svg","price":750},
			{"id":"b","category":"другое","title":"Мамка-таймер","image":"/b.svg","price":null},
			{"id":"","category":"кнопка","title":"broken","price":10}
		]}`))
	})

	products, err := c.GetProductList(context.Background())
	if err != nil {
		t.Fatalf("GetProductList: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("got %d products, want 2 (malformed record dropped)", len(products))
	}
	if products[0].Image != "https://cdn.example/a.svg" {
		t.Errorf("image = %q", products[0].Image)
	}
	if products[0].Price == nil || *products[0].Price != 750 {
		t.Errorf("price = %v", products[0].Price)
	}
	if products[1].Price != nil {
		t.Errorf("null price decoded as %d", *products[1].Price)
	}
}

func TestClient_GetProductListRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
	}, WithRetryMaxElapsed(10*time.Second))

	if _, err := c.GetProductList(context.Background()); err != nil {
		t.Fatalf("GetProductList: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_GetProductListClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}, WithRetryMaxElapsed(10*time.Second))

	_, err := c.GetProductList(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", statusErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, 4xx must not be retried", calls.Load())
	}
}

func TestClient_GetProductItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/product/abc" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"abc","category":"кнопка","title":"Кнопка","image":"/k.svg","price":100}`))
	})

	p, err := c.GetProductItem(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetProductItem: %v", err)
	}
	if p.ID != "abc" || p.Image != "https://cdn.example/k.svg" {
		t.Errorf("product = %+v", p)
	}
}

func TestClient_SendOrder(t *testing.T) {
	var got OrderRequest
	var key string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		key = r.Header.Get(headerIdempotencyKey)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"order-1","total":2200}`))
	})

	resp, err := c.SendOrder(context.Background(), OrderRequest{
		Payment:        "online",
		Email:          "a@b.com",
		Phone:          "+7 (999) 999-99-99",
		Address:        "ул Ленина 15",
		Total:          2200,
		Items:          []string{"a", "b"},
		IdempotencyKey: "checkout-1",
	})
	if err != nil {
		t.Fatalf("SendOrder: %v", err)
	}

	if resp.ID != "order-1" || resp.Total != 2200 {
		t.Errorf("response = %+v", resp)
	}
	if key != "checkout-1" {
		t.Errorf("idempotency key = %q", key)
	}
	if got.Total != 2200 || len(got.Items) != 2 || got.Address != "ул Ленина 15" {
		t.Errorf("request body = %+v", got)
	}
}

func TestClient_SendOrderStatusError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"Неверная сумма заказа"}`, http.StatusBadRequest)
	})

	_, err := c.SendOrder(context.Background(), OrderRequest{Total: 1})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if statusErr.Body != `{"error":"Неверная сумма заказа"}` {
		t.Errorf("body = %q", statusErr.Body)
	}
	if calls.Load() != 1 {
		t.Errorf("order was sent %d times", calls.Load())
	}
}
