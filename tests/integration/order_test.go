//go:build integration

package integration

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sync"
	"testing"
)

var (
	orderNumberPattern = regexp.MustCompile(`^MK-[0-9A-F]{8}$`)
	trackingPattern    = regexp.MustCompile(`^TRK-[0-9A-F]{10}$`)
)

// Seeded product IDs used below. The seed inserts in a fixed order, so IDs
// are stable: 10 = Yoga Mat (1499.00, stock 200), 12 = Air Purifier
// (15999.00, stock 3).
const (
	yogaMatID     = 10
	airPurifierID = 12
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 0.005
}

func TestPlaceOrder_NoIdentity(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/orders", 0, placeOrderRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/orders", 9001, placeOrderRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_Flow(t *testing.T) {
	const userID = 9010

	mat := getProduct(t, yogaMatID)
	addToCart(t, userID, yogaMatID, 2)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{
		ShippingAddress: "42 Main St",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !orderNumberPattern.MatchString(order.OrderNumber) {
		t.Errorf("order number %q does not match MK-XXXXXXXX", order.OrderNumber)
	}
	if !trackingPattern.MatchString(order.TrackingNumber) {
		t.Errorf("tracking number %q does not match TRK-XXXXXXXXXX", order.TrackingNumber)
	}
	if order.Status != "ORDER_PLACED" {
		t.Errorf("status: got %q, want ORDER_PLACED", order.Status)
	}
	if order.PaymentStatus != "COMPLETED" {
		t.Errorf("payment status: got %q, want COMPLETED", order.PaymentStatus)
	}

	wantSubtotal := mat.CurrentPrice * 2
	if !approx(order.Subtotal, wantSubtotal) {
		t.Errorf("subtotal: got %v, want %v", order.Subtotal, wantSubtotal)
	}
	// Subtotal is far above 500, so shipping is free.
	if order.ShippingCharge != 0 {
		t.Errorf("shipping: got %v, want 0", order.ShippingCharge)
	}
	if !approx(order.TotalAmount, wantSubtotal) {
		t.Errorf("total: got %v, want %v", order.TotalAmount, wantSubtotal)
	}

	// Stock is decremented by the purchase.
	after := getProduct(t, yogaMatID)
	if after.StockQuantity != mat.StockQuantity-2 {
		t.Errorf("stock after order: got %d, want %d", after.StockQuantity, mat.StockQuantity-2)
	}

	// The cart is cleared atomically with the order.
	cartResp := doGet(t, "/api/cart", userID)
	defer cartResp.Body.Close()
	summary := decodeJSON[cartSummaryResponse](t, cartResp)
	if summary.ItemCount != 0 {
		t.Errorf("cart after order: got %d items, want 0", summary.ItemCount)
	}
}

func TestPlaceOrder_CouponDiscount(t *testing.T) {
	const userID = 9020

	mat := getProduct(t, yogaMatID)
	addToCart(t, userID, yogaMatID, 1)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{
		ShippingAddress: "42 Main St",
		CouponCode:      "neuro10", // canonicalized server-side
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	// NEURO10: 10% capped at 500.
	wantDiscount := math.Min(mat.CurrentPrice*0.10, 500)
	if !approx(order.DiscountAmount, wantDiscount) {
		t.Errorf("discount: got %v, want %v", order.DiscountAmount, wantDiscount)
	}
}

func TestPlaceOrder_CouponBelowMinimum(t *testing.T) {
	const userID = 9030

	// One yoga mat (1499) is below SAVE200's 2000 minimum.
	addToCart(t, userID, yogaMatID, 1)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{
		CouponCode: "SAVE200",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// The failed order left the cart intact.
	cartResp := doGet(t, "/api/cart", userID)
	defer cartResp.Body.Close()
	summary := decodeJSON[cartSummaryResponse](t, cartResp)
	if summary.ItemCount != 1 {
		t.Errorf("cart after failed order: got %d items, want 1", summary.ItemCount)
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	const userID = 9040

	addToCart(t, userID, yogaMatID, 1)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{
		CouponCode: "NONEXISTENT",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// TestPlaceOrder_ConcurrentNoOversell races two checkouts against the 3
// remaining air purifiers. Exactly one 2-unit order can succeed alongside
// at most one more single unit; stock must never go negative and the two
// 2-unit orders must never both succeed.
func TestPlaceOrder_ConcurrentNoOversell(t *testing.T) {
	const (
		userA = 9051
		userB = 9052
	)

	before := getProduct(t, airPurifierID)
	if before.StockQuantity != 3 {
		t.Skipf("air purifier stock is %d, want the seeded 3", before.StockQuantity)
	}

	addToCart(t, userA, airPurifierID, 2)
	addToCart(t, userB, airPurifierID, 2)

	results := make([]int, 2)
	var wg sync.WaitGroup
	for i, uid := range []int64{userA, userB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := doJSON(t, http.MethodPost, "/api/orders", uid, placeOrderRequest{})
			defer resp.Body.Close()
			results[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range results {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusUnprocessableEntity:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Errorf("concurrent checkouts: got %d successes, want exactly 1", created)
	}

	after := getProduct(t, airPurifierID)
	if after.StockQuantity != 1 {
		t.Errorf("stock after race: got %d, want 1", after.StockQuantity)
	}
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	const userID = 9060

	addToCart(t, userID, yogaMatID, 1)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	ownResp := doGet(t, fmt.Sprintf("/api/orders/%d", order.ID), userID)
	defer ownResp.Body.Close()
	if ownResp.StatusCode != http.StatusOK {
		t.Errorf("own order: expected 200, got %d", ownResp.StatusCode)
	}

	foreignResp := doGet(t, fmt.Sprintf("/api/orders/%d", order.ID), 9061)
	defer foreignResp.Body.Close()
	if foreignResp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign order: expected 403, got %d", foreignResp.StatusCode)
	}
}

func TestOrderStatus_Lifecycle(t *testing.T) {
	const userID = 9070

	addToCart(t, userID, yogaMatID, 1)

	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	statusPath := fmt.Sprintf("/api/orders/%d/status", order.ID)

	shipResp := doJSON(t, http.MethodPost, statusPath, userID, map[string]string{"status": "SHIPPED"})
	defer shipResp.Body.Close()
	if shipResp.StatusCode != http.StatusOK {
		t.Fatalf("ship: expected 200, got %d", shipResp.StatusCode)
	}
	shipped := decodeJSON[orderResponse](t, shipResp)
	if shipped.Status != "SHIPPED" {
		t.Errorf("status: got %q, want SHIPPED", shipped.Status)
	}
	if shipped.ShippedAt == nil {
		t.Error("shippedAt not set")
	}

	deliverResp := doJSON(t, http.MethodPost, statusPath, userID, map[string]string{"status": "DELIVERED"})
	defer deliverResp.Body.Close()
	delivered := decodeJSON[orderResponse](t, deliverResp)
	if delivered.DeliveredAt == nil {
		t.Error("deliveredAt not set")
	}

	// Delivered is terminal.
	cancelResp := doJSON(t, http.MethodPost, statusPath, userID, map[string]string{"status": "CANCELLED"})
	defer cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("cancel after delivery: expected 422, got %d", cancelResp.StatusCode)
	}
}

func TestCancelOrder_Restocks(t *testing.T) {
	const userID = 9075

	before := getProduct(t, yogaMatID)

	addToCart(t, userID, yogaMatID, 2)
	resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	after := getProduct(t, yogaMatID)
	if after.StockQuantity != before.StockQuantity-2 {
		t.Fatalf("stock after order: got %d, want %d", after.StockQuantity, before.StockQuantity-2)
	}

	cancelResp := doJSON(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/status", order.ID), userID,
		map[string]string{"status": "CANCELLED"})
	defer cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", cancelResp.StatusCode)
	}

	restocked := getProduct(t, yogaMatID)
	if restocked.StockQuantity != before.StockQuantity {
		t.Errorf("stock after cancel: got %d, want %d", restocked.StockQuantity, before.StockQuantity)
	}
}

func TestListOrders(t *testing.T) {
	const userID = 9080

	for range 2 {
		addToCart(t, userID, yogaMatID, 1)
		resp := doJSON(t, http.MethodPost, "/api/orders", userID, placeOrderRequest{})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doGet(t, "/api/orders", userID)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	orders := decodeJSON[[]orderResponse](t, resp)
	if len(orders) != 2 {
		t.Errorf("got %d orders, want 2", len(orders))
	}
}
