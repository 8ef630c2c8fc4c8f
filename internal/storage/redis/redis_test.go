package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"web-larek/pkg/api"
	redisclient "web-larek/pkg/redis"
)

type fakeKV struct {
	data      map[string][]byte
	counters  map[string]int64
	ttls      map[string]time.Duration
	getErr    error
	setErr    error
	expireErr error
	sets      int
	expires   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data:     make(map[string][]byte),
		counters: make(map[string]int64),
		ttls:     make(map[string]time.Duration),
	}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, redisclient.ErrMiss
	}
	return data, nil
}

func (f *fakeKV) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.data[key] = data
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeKV) Expire(_ context.Context, key string, d time.Duration) (bool, error) {
	f.expires++
	if f.expireErr != nil {
		return false, f.expireErr
	}
	f.ttls[key] = d
	return true, nil
}

func (f *fakeKV) TTL(_ context.Context, key string) (time.Duration, error) {
	if ttl, ok := f.ttls[key]; ok {
		return ttl, nil
	}
	if _, ok := f.counters[key]; ok {
		return -1, nil
	}
	return -2, nil
}

type fakeSource struct {
	products []api.Product
	err      error
	calls    int
}

func (f *fakeSource) GetProductList(context.Context) ([]api.Product, error) {
	f.calls++
	return f.products, f.err
}

func price(v int64) *int64 { return &v }

func TestCatalogCache_MissThenHit(t *testing.T) {
	kv := newFakeKV()
	source := &fakeSource{products: []api.Product{
		{ID: "a", Category: "кнопка", Title: "A", Price: price(100)},
		{ID: "b", Category: "другое", Title: "B"},
	}}
	cache := NewCatalogCache(source, kv, 10*time.Minute, zap.NewNop())

	first, err := cache.GetProductList(context.Background())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := cache.GetProductList(context.Background())
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if source.calls != 1 {
		t.Errorf("source called %d times, want 1", source.calls)
	}
	if kv.ttls[catalogKey] != 10*time.Minute {
		t.Errorf("ttl = %v", kv.ttls[catalogKey])
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("lengths = %d / %d", len(first), len(second))
	}
	if second[0].Price == nil || *second[0].Price != 100 || second[1].Price != nil {
		t.Errorf("cached prices lost: %+v", second)
	}
}

func TestCatalogCache_RedisDownFallsBack(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	source := &fakeSource{products: []api.Product{{ID: "a", Category: "кнопка", Title: "A"}}}
	cache := NewCatalogCache(source, kv, time.Minute, zap.NewNop())

	products, err := cache.GetProductList(context.Background())
	if err != nil {
		t.Fatalf("GetProductList: %v", err)
	}
	if len(products) != 1 || source.calls != 1 {
		t.Errorf("products=%d calls=%d", len(products), source.calls)
	}
}

func TestCatalogCache_SourceError(t *testing.T) {
	sourceErr := errors.New("api down")
	cache := NewCatalogCache(&fakeSource{err: sourceErr}, newFakeKV(), time.Minute, zap.NewNop())

	if _, err := cache.GetProductList(context.Background()); !errors.Is(err, sourceErr) {
		t.Fatalf("err = %v, want wrapped source error", err)
	}
}

func TestCatalogCache_CorruptEntryRefetched(t *testing.T) {
	kv := newFakeKV()
	kv.data[catalogKey] = []byte("{not json")
	source := &fakeSource{products: []api.Product{{ID: "a", Category: "кнопка", Title: "A"}}}
	cache := NewCatalogCache(source, kv, time.Minute, zap.NewNop())

	if _, err := cache.GetProductList(context.Background()); err != nil {
		t.Fatalf("GetProductList: %v", err)
	}
	if source.calls != 1 || kv.sets != 1 {
		t.Errorf("calls=%d sets=%d", source.calls, kv.sets)
	}
}

func TestCatalogCache_Invalidate(t *testing.T) {
	kv := newFakeKV()
	source := &fakeSource{}
	cache := NewCatalogCache(source, kv, time.Minute, zap.NewNop())

	_, _ = cache.GetProductList(context.Background())
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	_, _ = cache.GetProductList(context.Background())

	if source.calls != 2 {
		t.Errorf("source called %d times, want 2", source.calls)
	}
}

func TestOrderLimiter_Allow(t *testing.T) {
	kv := newFakeKV()
	limiter := NewOrderLimiter(kv, 2, time.Minute)
	ctx := context.Background()

	want := []bool{true, true, false}
	for i, w := range want {
		ok, err := limiter.Allow(ctx, 42)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if ok != w {
			t.Errorf("attempt %d allowed=%v, want %v", i+1, ok, w)
		}
	}

	if kv.expires != 1 || kv.ttls[buildRateKey(42)] != time.Minute {
		t.Errorf("expire calls=%d ttl=%v", kv.expires, kv.ttls[buildRateKey(42)])
	}

	if ok, _ := limiter.Allow(ctx, 7); !ok {
		t.Error("other chats must have their own counter")
	}
}

func TestOrderLimiter_Disabled(t *testing.T) {
	kv := newFakeKV()
	limiter := NewOrderLimiter(kv, 0, time.Minute)

	for i := 0; i < 5; i++ {
		if ok, err := limiter.Allow(context.Background(), 1); !ok || err != nil {
			t.Fatalf("attempt %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if len(kv.counters) != 0 {
		t.Error("disabled limiter touched redis")
	}
}

func TestOrderLimiter_RestoresLostExpiry(t *testing.T) {
	kv := newFakeKV()
	limiter := NewOrderLimiter(kv, 1, time.Minute)
	ctx := context.Background()
	key := buildRateKey(42)

	kv.expireErr = errors.New("connection reset")
	if _, err := limiter.Allow(ctx, 42); err == nil {
		t.Fatal("expected the expire error")
	}
	if _, ok := kv.ttls[key]; ok {
		t.Fatal("counter must be left without expiry")
	}

	kv.expireErr = nil
	ok, err := limiter.Allow(ctx, 42)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("attempt over the limit allowed")
	}
	if kv.ttls[key] != time.Minute {
		t.Errorf("ttl = %v, want the window restored", kv.ttls[key])
	}
}
