package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/dto"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	cartsvc "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

type stubCartService struct {
	cart      *models.Cart
	view      *cartsvc.View
	err       error
	owners    []cartsvc.OwnerKey
	added     []int
	updated   map[uuid.UUID]int
	cleared   bool
	merge     *cartsvc.MergeResult
	mergedFor string
}

func (s *stubCartService) GetOrCreate(_ context.Context, owner cartsvc.OwnerKey) (*models.Cart, error) {
	s.owners = append(s.owners, owner)
	return s.cart, s.err
}

func (s *stubCartService) Get(_ context.Context, _ cartsvc.OwnerKey, _ uuid.UUID) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) AddLine(_ context.Context, _ cartsvc.OwnerKey, cartID, productID, variantID uuid.UUID, qty int) (*models.CartLine, error) {
	s.added = append(s.added, qty)
	return &models.CartLine{ID: uuid.New(), CartID: cartID, ProductID: productID, VariantID: variantID, Quantity: qty}, s.err
}

func (s *stubCartService) UpdateLine(_ context.Context, _ cartsvc.OwnerKey, _, lineID uuid.UUID, qty int) error {
	if s.updated == nil {
		s.updated = map[uuid.UUID]int{}
	}
	s.updated[lineID] = qty
	return s.err
}

func (s *stubCartService) RemoveLine(context.Context, cartsvc.OwnerKey, uuid.UUID, uuid.UUID) error {
	return s.err
}

func (s *stubCartService) Clear(context.Context, cartsvc.OwnerKey, uuid.UUID) error {
	s.cleared = true
	return s.err
}

func (s *stubCartService) MergeGuestIntoUser(_ context.Context, token string, _ uuid.UUID) (*cartsvc.MergeResult, error) {
	s.mergedFor = token
	return s.merge, s.err
}

func (s *stubCartService) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type recordingNotifier struct {
	calls int
	lines int
}

func (n *recordingNotifier) CartMerged(_ context.Context, _, _, _ uuid.UUID, lines int) {
	n.calls++
	n.lines = lines
}

type recordingRevoker struct {
	tokens []string
}

func (r *recordingRevoker) Revoke(_ context.Context, token string) error {
	r.tokens = append(r.tokens, token)
	return nil
}

const guestToken = "guest-token-0123456789abcdef"

func pricedCart() (*models.Cart, *cartsvc.View) {
	c := &models.Cart{ID: uuid.New()}
	line := models.CartLine{ID: uuid.New(), CartID: c.ID, ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 2}
	return c, &cartsvc.View{
		Cart: c,
		Lines: []cartsvc.LineView{{
			Line:           line,
			ProductName:    "Linen Shirt",
			VariantName:    "M / Blue",
			SKU:            "LS-M-BL",
			UnitPriceCents: 1500,
			LineTotalCents: 3000,
			StockQuantity:  10,
			Available:      true,
		}},
		SubtotalCents: 3000,
	}
}

func TestCartFetchForGuest(t *testing.T) {
	c, view := pricedCart()
	svc := &stubCartService{cart: c, view: view}
	handler := CartFetch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithSessionToken(req.Context(), guestToken))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data dto.Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != c.ID || envelope.Data.SubtotalCents != 3000 || envelope.Data.ItemCount != 2 {
		t.Fatalf("unexpected cart payload: %+v", envelope.Data)
	}
	if envelope.Data.Subtotal != "30.00" {
		t.Fatalf("unexpected formatted subtotal %q", envelope.Data.Subtotal)
	}
	if len(svc.owners) != 1 || svc.owners[0].SessionToken != guestToken {
		t.Fatalf("expected guest owner, got %+v", svc.owners)
	}
}

func TestCartFetchWithoutOwner(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddLineValidatesBody(t *testing.T) {
	c, view := pricedCart()
	svc := &stubCartService{cart: c, view: view}
	handler := CartAddLine(svc, nil)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","variant_id":"`+uuid.NewString()+`","quantity":0}`))
	req = req.WithContext(middleware.WithUser(req.Context(), userID, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.added) != 0 {
		t.Fatalf("service should not be called on invalid body")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","variant_id":"`+uuid.NewString()+`","quantity":3}`))
	req = req.WithContext(middleware.WithUser(req.Context(), userID, enums.RoleCustomer))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.added) != 1 || svc.added[0] != 3 {
		t.Fatalf("unexpected add calls %v", svc.added)
	}
	if svc.owners[0].UserID != userID {
		t.Fatalf("expected user owner")
	}
}

func TestCartAddLineStockError(t *testing.T) {
	c, _ := pricedCart()
	svc := &stubCartService{cart: c, err: pkgerrors.New(pkgerrors.CodeInvalidState, "insufficient stock")}
	handler := CartAddLine(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","variant_id":"`+uuid.NewString()+`","quantity":1}`))
	req = req.WithContext(middleware.WithSessionToken(req.Context(), guestToken))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateLineZeroQuantity(t *testing.T) {
	c, view := pricedCart()
	svc := &stubCartService{cart: c, view: view}
	lineID := uuid.New()

	router := chi.NewRouter()
	router.Patch("/api/v1/cart/lines/{lineId}", CartUpdateLine(svc, nil))
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/lines/"+lineID.String(), strings.NewReader(`{"quantity":0}`))
	req = req.WithContext(middleware.WithSessionToken(req.Context(), guestToken))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if qty, ok := svc.updated[lineID]; !ok || qty != 0 {
		t.Fatalf("expected zero-quantity update, got %v", svc.updated)
	}
}

func TestCartUpdateLineRequiresQuantity(t *testing.T) {
	c, view := pricedCart()
	router := chi.NewRouter()
	router.Patch("/api/v1/cart/lines/{lineId}", CartUpdateLine(&stubCartService{cart: c, view: view}, nil))
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/lines/"+uuid.NewString(), strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithSessionToken(req.Context(), guestToken))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	c, _ := pricedCart()
	svc := &stubCartService{cart: c}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithSessionToken(req.Context(), guestToken))
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent || !svc.cleared {
		t.Fatalf("expected cleared cart, got %d", resp.Code)
	}
}

func TestCartMergeNotifiesAndRevokes(t *testing.T) {
	c, view := pricedCart()
	svc := &stubCartService{
		cart:  c,
		view:  view,
		merge: &cartsvc.MergeResult{Cart: c, GuestCartID: uuid.New(), MergedLines: 2},
	}
	notifier := &recordingNotifier{}
	revoker := &recordingRevoker{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	ctx := middleware.WithUser(req.Context(), uuid.New(), enums.RoleCustomer)
	ctx = middleware.WithSessionToken(ctx, guestToken)
	resp := httptest.NewRecorder()
	CartMerge(svc, notifier, revoker, nil).ServeHTTP(resp, req.WithContext(ctx))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.mergedFor != guestToken {
		t.Fatalf("merge called with %q", svc.mergedFor)
	}
	if notifier.calls != 1 || notifier.lines != 2 {
		t.Fatalf("unexpected notifier state %+v", notifier)
	}
	if len(revoker.tokens) != 1 || revoker.tokens[0] != guestToken {
		t.Fatalf("guest session not revoked")
	}
}

func TestCartMergeSkippedDoesNotNotify(t *testing.T) {
	c, view := pricedCart()
	svc := &stubCartService{cart: c, view: view, merge: &cartsvc.MergeResult{Cart: c, Skipped: true}}
	notifier := &recordingNotifier{}
	revoker := &recordingRevoker{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	ctx := middleware.WithUser(req.Context(), uuid.New(), enums.RoleCustomer)
	ctx = middleware.WithSessionToken(ctx, guestToken)
	resp := httptest.NewRecorder()
	CartMerge(svc, notifier, revoker, nil).ServeHTTP(resp, req.WithContext(ctx))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if notifier.calls != 0 || len(revoker.tokens) != 0 {
		t.Fatalf("skipped merge must not notify or revoke")
	}
}

func TestCartMergeRequiresGuestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), uuid.New(), enums.RoleCustomer))
	resp := httptest.NewRecorder()
	CartMerge(&stubCartService{}, nil, nil, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
