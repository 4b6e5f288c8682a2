package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"storefront/internal/api"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/events"
	"storefront/internal/repository/memory"
	"storefront/internal/service"
	"storefront/internal/validation"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}
	}
	return r.notes[len(r.notes)-1]
}

type harness struct {
	client   *Client
	notes    *recorder
	requests int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	if err := memory.Seed(context.Background(), store); err != nil {
		t.Fatal(err)
	}
	repos := store.Repositories()
	publisher := events.NewInlinePublisher(events.NewInventory(nil))
	e := api.NewRouter(api.Services{
		Auth:    service.NewAuthService(repos.Users, cache.NewMemorySessions(), "test-secret", time.Hour, true),
		Catalog: service.NewCatalogService(repos.Products, repos.Categories),
		Cart:    service.NewCartService(repos.Cart, repos.Products),
		Orders:  service.NewOrderService(repos.Orders, repos.Products, repos.Cart, publisher, cache.NewMemoryIdempotency()),
		Admin:   service.NewAdminService(repos.Stats),
	}, api.Options{RateLimit: 1000, RateBurst: 1000})

	h := &harness{notes: &recorder{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&h.requests, 1)
		e.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	h.client = New(srv.URL, WithHTTPClient(srv.Client()), WithNotifier(h.notes))
	return h
}

func (h *harness) count() int64 { return atomic.LoadInt64(&h.requests) }

func (h *harness) signUp(t *testing.T, email string, role entity.Role) *Session {
	t.Helper()
	s, err := h.client.Register(context.Background(), validation.Register{
		FirstName: "Test", LastName: "User", Email: email, Password: "secret1", ConfirmPassword: "secret1", Role: role,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return s
}

func checkout(items ...validation.OrderLine) validation.PlaceOrder {
	return validation.PlaceOrder{
		Items: items,
		ShippingAddress: entity.ShippingAddress{
			FirstName: "Ada", LastName: "L", Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
		PaymentMethod: entity.PaymentPaypal,
	}
}

func TestCatalogQueriesAreCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	products, err := h.client.Products(ctx, catalog.Query{Sort: catalog.SortPriceLow})
	if err != nil {
		t.Fatal(err)
	}
	if products[0].Name != "Yoga Mat" {
		t.Fatalf("cheapest = %s", products[0].Name)
	}
	before := h.count()
	if _, err := h.client.Products(ctx, catalog.Query{Sort: catalog.SortPriceLow}); err != nil {
		t.Fatal(err)
	}
	if h.count() != before {
		t.Fatal("cached query hit the server")
	}

	if _, err := h.client.Products(ctx, catalog.Query{Search: "lamp", CategoryID: 2}); err != nil {
		t.Fatal(err)
	}
	if !h.client.Cache().Has("/api/products?categoryId=2&search=lamp") {
		t.Fatal("filtered listing not cached under its query")
	}

	_, err = h.client.Product(ctx, 404)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v", err)
	}
	if h.client.Cache().Has("/api/products/404") {
		t.Fatal("failed query cached")
	}
}

func TestAuthLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if user, err := h.client.Me(ctx); user != nil || err != nil {
		t.Fatalf("signed out Me = %v, %v", user, err)
	}

	before := h.count()
	_, err := h.client.Login(ctx, validation.Login{Email: "not-an-email", Password: "x"})
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.count() != before {
		t.Fatal("invalid form was sent")
	}
	if n := h.notes.last(); n.Variant != VariantDestructive {
		t.Fatalf("notification = %+v", n)
	}

	h.signUp(t, "shopper@example.com", "")
	user, err := h.client.Me(ctx)
	if err != nil || user == nil || user.Email != "shopper@example.com" {
		t.Fatalf("Me = %+v, %v", user, err)
	}

	if err := h.client.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if h.client.Token() != "" || h.client.Cache().Len() != 0 {
		t.Fatal("logout kept state")
	}

	_, err = h.client.Login(ctx, validation.Login{Email: "shopper@example.com", Password: "wrong12"})
	if !errors.As(err, new(*APIError)) {
		t.Fatalf("err = %v", err)
	}
	if n := h.notes.last(); n.Description != "invalid email or password" {
		t.Fatalf("notification = %+v", n)
	}

	h.client.SetToken("stale")
	if user, err := h.client.Me(ctx); user != nil || err != nil {
		t.Fatalf("stale token Me = %v, %v", user, err)
	}
	if err := h.client.Logout(ctx); err != nil {
		t.Fatalf("Logout with stale token: %v", err)
	}
	if h.client.Token() != "" {
		t.Fatal("stale token kept after logout")
	}
}

func TestCartMutationsInvalidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signUp(t, "c@example.com", "")

	items, err := h.client.CartItems(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("empty cart = %v, %v", items, err)
	}
	if !h.client.Cache().Has("/api/cart") {
		t.Fatal("cart not cached")
	}

	if _, err := h.client.AddToCart(ctx, validation.CartAdd{ProductID: 7, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	if n := h.notes.last(); n.Title != "Success" || n.Description != "Item added to cart" {
		t.Fatalf("notification = %+v", n)
	}
	if h.client.Cache().Has("/api/cart") {
		t.Fatal("cart not invalidated")
	}

	summary, err := h.client.CartSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// 2 x 19.99 = 39.98, tax 3.20
	if summary.Total.StringFixed(2) != "58.18" || summary.ItemCount != 2 {
		t.Fatalf("summary = %+v", summary)
	}

	// out of stock: the server rejects and the cache stays as it was
	_, err = h.client.AddToCart(ctx, validation.CartAdd{ProductID: 3, Quantity: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("err = %v", err)
	}
	if !h.client.Cache().Has("/api/cart") {
		t.Fatal("failed mutation invalidated the cache")
	}
	if n := h.notes.last(); n.Variant != VariantDestructive {
		t.Fatalf("notification = %+v", n)
	}

	items, _ = h.client.CartItems(ctx)
	line := items[0]
	// yoga mat stock is 3
	updated, err := h.client.StepCartItem(ctx, line, 5)
	if err != nil || updated.Quantity != 3 {
		t.Fatalf("step up = %+v, %v", updated, err)
	}
	before := h.count()
	same, err := h.client.StepCartItem(ctx, *updated, 1)
	if err != nil || same.Quantity != 3 || h.count() != before {
		t.Fatal("step beyond stock sent a request")
	}
	down, err := h.client.StepCartItem(ctx, *updated, -10)
	if err != nil || down.Quantity != 1 {
		t.Fatalf("step down = %+v, %v", down, err)
	}

	if err := h.client.RemoveFromCart(ctx, line.ID); err != nil {
		t.Fatal(err)
	}
	if n := h.notes.last(); n.Description != "Item removed from cart" {
		t.Fatalf("notification = %+v", n)
	}
	if err := h.client.ClearCart(ctx); err != nil {
		t.Fatal(err)
	}
	if n := h.notes.last(); n.Description != "Cart cleared" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestCheckoutAndOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signUp(t, "c@example.com", "")

	_, _ = h.client.AddToCart(ctx, validation.CartAdd{ProductID: 2, Quantity: 1})
	_, _ = h.client.CartItems(ctx)
	_, _ = h.client.Orders(ctx)

	before := h.count()
	bad := checkout()
	bad.PaymentMethod = entity.PaymentCard
	if _, err := h.client.PlaceOrder(ctx, bad, ""); err == nil || h.count() != before {
		t.Fatal("incomplete checkout was sent")
	}
	if n := h.notes.last(); n.Description != "Please fill in all required fields." {
		t.Fatalf("notification = %+v", n)
	}

	if _, err := h.client.Product(ctx, 2); err != nil {
		t.Fatal(err)
	}
	order, err := h.client.PlaceOrder(ctx, checkout(validation.OrderLine{ProductID: 2, Quantity: 1}), "retry-me")
	if err != nil {
		t.Fatal(err)
	}
	if n := h.notes.last(); n.Title != "Success!" {
		t.Fatalf("notification = %+v", n)
	}
	for _, path := range []string{"/api/cart", "/api/orders", "/api/products/2"} {
		if h.client.Cache().Has(path) {
			t.Fatalf("checkout left stale %s", path)
		}
	}
	if p, _ := h.client.Product(ctx, 2); p.Stock != 39 {
		t.Fatalf("stock after checkout = %d", p.Stock)
	}
	if _, err := h.client.PlaceOrder(ctx, checkout(validation.OrderLine{ProductID: 2, Quantity: 1}), "retry-me"); err == nil {
		t.Fatal("duplicate checkout accepted")
	}

	orders, err := h.client.Orders(ctx)
	if err != nil || len(orders) != 1 {
		t.Fatalf("orders = %v, %v", orders, err)
	}
	if !OrderActions(orders[0].Status).Cancel {
		t.Fatal("pending order not cancellable")
	}

	_, _ = h.client.Product(ctx, 2)
	cancelled, err := h.client.CancelOrder(ctx, order.ID)
	if err != nil || cancelled.Status != entity.StatusCancelled {
		t.Fatalf("cancel = %+v, %v", cancelled, err)
	}
	if h.client.Cache().Has("/api/products/2") {
		t.Fatal("cancel left stale stock")
	}
	p, _ := h.client.Product(ctx, 2)
	if p.Stock != 40 {
		t.Fatalf("stock = %d", p.Stock)
	}

	if _, err := h.client.Reorder(ctx, order.ID); err == nil {
		t.Fatal("cancelled order reordered")
	}
}

func TestAdminDashboard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.signUp(t, "c@example.com", "")
	order, err := h.client.PlaceOrder(ctx, checkout(validation.OrderLine{ProductID: 5, Quantity: 2}), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.client.Stats(ctx); err == nil {
		t.Fatal("customer loaded stats")
	}

	h.signUp(t, "admin@example.com", entity.RoleAdmin)
	stats, err := h.client.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// 48.00 + 15.00 + 3.84
	if stats.TotalRevenue.StringFixed(2) != "66.84" || stats.TotalOrders != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	for _, st := range []entity.OrderStatus{entity.StatusProcessing, entity.StatusShipped, entity.StatusDelivered} {
		if _, err := h.client.UpdateOrderStatus(ctx, order.ID, st); err != nil {
			t.Fatalf("%s: %v", st, err)
		}
	}
	if h.client.Cache().Has("/api/admin/stats") {
		t.Fatal("status change left stale stats")
	}
	got, err := h.client.Order(ctx, order.ID)
	if err != nil || got.Status != entity.StatusDelivered {
		t.Fatalf("order = %+v, %v", got, err)
	}
}
