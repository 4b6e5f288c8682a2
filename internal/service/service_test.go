package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/events"
	"storefront/internal/repository"
	"storefront/internal/repository/memory"
	"storefront/internal/validation"
	"testing"
	"time"
)

type fixture struct {
	repos   repository.Repositories
	idem    IdempotencyStore
	auth    *AuthService
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
	admin   *AdminService

	customer   Actor
	vendor     Actor
	adminActor Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := memory.Seed(ctx, store); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	repos := store.Repositories()

	f := &fixture{repos: repos, idem: cache.NewMemoryIdempotency()}
	f.auth = NewAuthService(repos.Users, cache.NewMemorySessions(), "test-secret", time.Hour, true)
	f.catalog = NewCatalogService(repos.Products, repos.Categories)
	f.cart = NewCartService(repos.Cart, repos.Products)
	publisher := events.NewInlinePublisher(events.NewInventory(nil))
	f.orders = NewOrderService(repos.Orders, repos.Products, repos.Cart, publisher, f.idem)
	f.admin = NewAdminService(repos.Stats)

	f.customer = f.register(t, "cust@example.com", entity.RoleCustomer)
	f.vendor = f.register(t, "vend@example.com", entity.RoleVendor)
	f.adminActor = f.register(t, "admin@example.com", entity.RoleAdmin)
	return f
}

func (f *fixture) register(t *testing.T, email string, role entity.Role) Actor {
	t.Helper()
	res, err := f.auth.Register(context.Background(), validation.Register{
		FirstName: "Test", LastName: "User", Email: email,
		Password: "secret1", ConfirmPassword: "secret1", Role: role,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return Actor{UserID: res.User.ID, Role: res.User.Role}
}

func address() entity.ShippingAddress {
	return entity.ShippingAddress{FirstName: "Ada", LastName: "L", Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"}
}

func paypal(lines ...validation.OrderLine) validation.PlaceOrder {
	return validation.PlaceOrder{Items: lines, ShippingAddress: address(), PaymentMethod: entity.PaymentPaypal}
}

func stockOf(t *testing.T, f *fixture, id int) int {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID %d: %v", id, err)
	}
	return p.Stock
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, validation.Register{FirstName: "A", LastName: "B", Email: "CUST@example.com",
		Password: "secret1", ConfirmPassword: "secret1"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := f.auth.Login(ctx, validation.Login{Email: "cust@example.com", Password: "wrong12"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.auth.Login(ctx, validation.Login{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	res, err := f.auth.Login(ctx, validation.Login{Email: " Cust@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.PasswordHash == "secret1" || res.User.Role != entity.RoleCustomer {
		t.Fatalf("user = %+v", res.User)
	}

	claims, err := f.auth.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	actor, err := f.auth.Authenticate(ctx, claims)
	if err != nil || actor.UserID != res.User.ID {
		t.Fatalf("Authenticate = %+v, %v", actor, err)
	}

	if err := f.auth.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.auth.Authenticate(ctx, claims); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestAdminSignupCanBeDisabled(t *testing.T) {
	store := memory.NewStore()
	auth := NewAuthService(store.Repositories().Users, cache.NewMemorySessions(), "k", time.Hour, false)
	_, err := auth.Register(context.Background(), validation.Register{FirstName: "A", LastName: "B", Email: "a@example.com",
		Password: "secret1", ConfirmPassword: "secret1", Role: entity.RoleAdmin})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	f := newFixture(t)
	res, _ := f.auth.Login(context.Background(), validation.Login{Email: "cust@example.com", Password: "secret1"})

	other := NewAuthService(f.repos.Users, cache.NewMemorySessions(), "other-secret", time.Hour, false)
	if _, err := other.ParseToken(res.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong key, got %v", err)
	}

	f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := f.auth.ParseToken(res.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestCatalogPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := validation.ProductInput{Name: "Tent", Price: decimal.RequireFromString("120"), Stock: 2, CategoryID: 3}

	if _, err := f.catalog.CreateProduct(ctx, f.customer, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer created product: %v", err)
	}
	p, err := f.catalog.CreateProduct(ctx, f.vendor, in)
	if err != nil {
		t.Fatalf("vendor CreateProduct: %v", err)
	}
	if p.VendorID != f.vendor.UserID {
		t.Fatalf("vendor id = %d", p.VendorID)
	}

	// seeded products belong to nobody
	if _, err := f.catalog.UpdateProduct(ctx, f.vendor, 1, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("vendor edited foreign product: %v", err)
	}
	in.Stock = 9
	if _, err := f.catalog.UpdateProduct(ctx, f.adminActor, p.ID, in); err != nil {
		t.Fatalf("admin UpdateProduct: %v", err)
	}

	bad := in
	bad.CategoryID = 99
	var verrs validation.Errors
	if _, err := f.catalog.CreateProduct(ctx, f.adminActor, bad); !errors.As(err, &verrs) || verrs["categoryId"] == "" {
		t.Fatalf("expected categoryId error, got %v", err)
	}
	negative := in
	negative.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("-50"))
	if _, err := f.catalog.CreateProduct(ctx, f.adminActor, negative); !errors.As(err, &verrs) || verrs["salePrice"] == "" {
		t.Fatalf("expected salePrice error, got %v", err)
	}

	if err := f.catalog.DeleteProduct(ctx, f.vendor, p.ID); err != nil {
		t.Fatalf("vendor DeleteProduct: %v", err)
	}
	if _, err := f.catalog.GetProduct(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := f.catalog.CreateCategory(ctx, f.vendor, validation.CategoryInput{Name: "Books"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("vendor created category: %v", err)
	}
	if _, err := f.catalog.CreateCategory(ctx, f.adminActor, validation.CategoryInput{Name: "Books"}); err != nil {
		t.Fatalf("admin CreateCategory: %v", err)
	}
}

func TestListProductsDefaultsSort(t *testing.T) {
	f := newFixture(t)
	products, err := f.catalog.ListProducts(context.Background(), catalog.Query{Sort: "bogus"})
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 7 || products[0].ID != 7 {
		t.Fatalf("first product = %+v", products[0])
	}
}

func TestCartAddMergesAndChecksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.customer.UserID

	// product 7: stock 3
	if _, err := f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 7, Quantity: 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	item, err := f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 7, Quantity: 1})
	if err != nil {
		t.Fatalf("Add merge: %v", err)
	}
	if item.Quantity != 3 {
		t.Fatalf("merged quantity = %d", item.Quantity)
	}
	if _, err := f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 7, Quantity: 1}); !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// product 3: stock 0
	if _, err := f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 3, Quantity: 1}); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	items, _ := f.cart.Items(ctx, uid)
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	if _, err := f.cart.Update(ctx, uid, items[0].ID, validation.CartUpdate{Quantity: 4}); !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := f.cart.Update(ctx, uid, items[0].ID, validation.CartUpdate{Quantity: 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.cart.Update(ctx, f.vendor.UserID, items[0].ID, validation.CartUpdate{Quantity: 1}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("other user updated line: %v", err)
	}
}

func TestCartSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.customer.UserID

	// speaker 59.00 x2, yoga mat on sale 19.99 x1
	_, _ = f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 2, Quantity: 2})
	_, _ = f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 7, Quantity: 1})

	s, err := f.cart.Summary(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	// 137.99 * 0.08 = 11.0392
	want := map[string]string{"subtotal": "137.99", "shipping": "15.00", "tax": "11.04", "total": "164.03"}
	got := map[string]string{"subtotal": s.Subtotal.StringFixed(2), "shipping": s.Shipping.StringFixed(2), "tax": s.Tax.StringFixed(2), "total": s.Total.StringFixed(2)}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %s, want %s", k, got[k], v)
		}
	}
	if s.ItemCount != 3 {
		t.Errorf("item count = %d", s.ItemCount)
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.customer.UserID

	_, _ = f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 2, Quantity: 2})
	_, _ = f.cart.Add(ctx, uid, validation.CartAdd{ProductID: 5, Quantity: 1})

	order, err := f.orders.Place(ctx, f.customer, paypal(
		validation.OrderLine{ProductID: 2, Quantity: 1},
		validation.OrderLine{ProductID: 7, Quantity: 1},
		validation.OrderLine{ProductID: 2, Quantity: 1},
	), "")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(order.Items) != 2 || order.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", order.Items)
	}
	if !order.Items[1].UnitPrice.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("sale price not used: %s", order.Items[1].UnitPrice)
	}
	// 118 + 19.99 = 137.99
	if order.Total.StringFixed(2) != "164.03" || order.Status != entity.StatusPending {
		t.Fatalf("order = %+v", order)
	}
	if stockOf(t, f, 2) != 38 || stockOf(t, f, 7) != 2 {
		t.Fatal("stock not decremented")
	}
	items, _ := f.cart.Items(ctx, uid)
	if len(items) != 1 || items[0].ProductID != 5 {
		t.Fatalf("cart after order = %+v", items)
	}
}

func TestPlaceOrderRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  validation.PlaceOrder
		want error
	}{
		{"out of stock", paypal(validation.OrderLine{ProductID: 3, Quantity: 1}), ErrOutOfStock},
		{"too many", paypal(validation.OrderLine{ProductID: 7, Quantity: 4}), repository.ErrInsufficientStock},
		{"unknown product", paypal(validation.OrderLine{ProductID: 404, Quantity: 1}), repository.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.orders.Place(ctx, f.customer, tt.req, ""); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	var verrs validation.Errors
	_, err := f.orders.Place(ctx, f.customer, validation.PlaceOrder{PaymentMethod: entity.PaymentCard, ShippingAddress: address()}, "")
	if !errors.As(err, &verrs) || verrs["payment"] == "" || verrs["items"] == "" {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestPlaceOrderIdempotency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := paypal(validation.OrderLine{ProductID: 5, Quantity: 1})

	if _, err := f.orders.Place(ctx, f.customer, req, "key-1"); err != nil {
		t.Fatalf("first Place: %v", err)
	}
	if _, err := f.orders.Place(ctx, f.customer, req, "key-1"); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	// keys are per user
	if _, err := f.orders.Place(ctx, f.vendor, req, "key-1"); err != nil {
		t.Fatalf("other user's Place: %v", err)
	}

	bad := paypal(validation.OrderLine{ProductID: 3, Quantity: 1})
	if _, err := f.orders.Place(ctx, f.customer, bad, "key-2"); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if _, err := f.orders.Place(ctx, f.customer, req, "key-2"); err != nil {
		t.Fatalf("retry after failure rejected: %v", err)
	}

	tooMany := paypal(validation.OrderLine{ProductID: 5, Quantity: 100000})
	if _, err := f.orders.Place(ctx, f.customer, tooMany, "key-3"); !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	key := fmt.Sprintf("%d:key-3", f.customer.UserID)
	if ok, err := f.idem.Claim(ctx, key, time.Hour); err != nil || !ok {
		t.Fatalf("key still held after failed Place: ok=%v err=%v", ok, err)
	}
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, _ := f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 5, Quantity: 1}), "")
	_, _ = f.orders.Place(ctx, f.vendor, paypal(validation.OrderLine{ProductID: 5, Quantity: 1}), "")

	list, _ := f.orders.List(ctx, f.customer, 0)
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("customer orders = %+v", list)
	}
	all, _ := f.orders.List(ctx, f.adminActor, 0)
	if len(all) != 2 {
		t.Fatalf("admin orders = %d", len(all))
	}
	if _, err := f.orders.Get(ctx, f.vendor, mine.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("vendor saw customer order: %v", err)
	}
	if _, err := f.orders.Get(ctx, f.adminActor, mine.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 2, Quantity: 3}), "")
	if _, err := f.orders.UpdateStatus(ctx, f.customer, order.ID, validation.StatusUpdate{Status: entity.StatusShipped}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer changed status: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, f.adminActor, order.ID, validation.StatusUpdate{Status: entity.StatusShipped}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending jumped to shipped: %v", err)
	}
	for _, st := range []entity.OrderStatus{entity.StatusProcessing, entity.StatusShipped} {
		if _, err := f.orders.UpdateStatus(ctx, f.adminActor, order.ID, validation.StatusUpdate{Status: st}); err != nil {
			t.Fatalf("UpdateStatus %s: %v", st, err)
		}
	}
	if _, err := f.orders.Cancel(ctx, f.customer, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("shipped order cancelled: %v", err)
	}
	if _, err := f.orders.Reorder(ctx, f.customer, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("undelivered order reordered: %v", err)
	}
	delivered, err := f.orders.UpdateStatus(ctx, f.adminActor, order.ID, validation.StatusUpdate{Status: entity.StatusDelivered})
	if err != nil || !delivered.Status.Actions().Reorder {
		t.Fatalf("deliver = %+v, %v", delivered, err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, _ := f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 2, Quantity: 3}), "")
	if stockOf(t, f, 2) != 37 {
		t.Fatal("stock not decremented")
	}
	if _, err := f.orders.Cancel(ctx, f.vendor, order.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("vendor cancelled customer order: %v", err)
	}
	cancelled, err := f.orders.Cancel(ctx, f.customer, order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != entity.StatusCancelled || cancelled.Status.Actions().Cancel {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if stockOf(t, f, 2) != 40 {
		t.Fatalf("stock = %d, want 40", stockOf(t, f, 2))
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, *entity.Order) error {
	return errors.New("broker down")
}

func TestCancelRestoresStockWhenPublishFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders = NewOrderService(f.repos.Orders, f.repos.Products, f.repos.Cart, failingPublisher{}, f.idem)

	order, err := f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 1, Quantity: 1}), "")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if stockOf(t, f, 1) != 24 {
		t.Fatalf("stock = %d, want 24", stockOf(t, f, 1))
	}
	if _, err := f.orders.Cancel(ctx, f.customer, order.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if stockOf(t, f, 1) != 25 {
		t.Fatalf("stock = %d, want 25", stockOf(t, f, 1))
	}
}

func TestReorderClampsAndSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.customer.UserID

	order, err := f.orders.Place(ctx, f.customer, paypal(
		validation.OrderLine{ProductID: 7, Quantity: 2},
		validation.OrderLine{ProductID: 1, Quantity: 1},
		validation.OrderLine{ProductID: 4, Quantity: 1},
	), "")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	for _, st := range []entity.OrderStatus{entity.StatusProcessing, entity.StatusShipped, entity.StatusDelivered} {
		if _, err := f.orders.UpdateStatus(ctx, f.adminActor, order.ID, validation.StatusUpdate{Status: st}); err != nil {
			t.Fatalf("UpdateStatus %s: %v", st, err)
		}
	}

	// yoga mat has 1 left, headphones sell out, desk lamp is deleted
	_ = f.repos.Products.AdjustStock(ctx, 1, -stockOf(t, f, 1))
	_ = f.repos.Products.Delete(ctx, 4)

	res, err := f.orders.Reorder(ctx, f.customer, order.ID)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.Added != 1 || len(res.Skipped) != 2 {
		t.Fatalf("result = %+v", res)
	}
	items, _ := f.cart.Items(ctx, uid)
	if len(items) != 1 || items[0].ProductID != 7 || items[0].Quantity != 1 {
		t.Fatalf("cart = %+v", items)
	}

	if _, err := f.orders.Reorder(ctx, f.adminActor, order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin reordered someone else's order: %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.admin.Stats(ctx, f.customer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer saw stats: %v", err)
	}
	_, _ = f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 5, Quantity: 1}), "")
	cancelled, _ := f.orders.Place(ctx, f.customer, paypal(validation.OrderLine{ProductID: 5, Quantity: 1}), "")
	_, _ = f.orders.Cancel(ctx, f.customer, cancelled.ID)

	st, err := f.admin.Stats(ctx, f.adminActor)
	if err != nil {
		t.Fatal(err)
	}
	// 24.00 + 15.00 + 1.92
	if st.TotalRevenue.StringFixed(2) != "40.92" || st.TotalOrders != 2 || st.TotalUsers != 3 || st.TotalProducts != 7 {
		t.Fatalf("stats = %+v", st)
	}
}
