package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/velardez/venue-pos/internal/model"
)

// seedQR inserts an active signed code bound to the given record.
func seedQR(store *fakeStore, issuer *Issuer, kind string, refID uint64, expiresAt *time.Time) *model.QR {
	store.nextQR++
	qr := &model.QR{
		ID:        store.nextQR,
		Kind:      kind,
		RefID:     refID,
		Code:      "test-code-0000-" + string(rune('a'+store.nextQR)),
		State:     model.QRActive,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	qr.Signature = issuer.Sign(qr.Code)
	store.qrs[qr.Code] = qr
	return qr
}

func TestRedeem_OrderRoundTrip(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	seedOrder(store, 1, model.OrderPaid)
	qr := seedQR(store, issuer, model.QRKindOrder, 1, nil)

	res, err := NewRedemption(store, issuer).Redeem(context.Background(), qr.Code, qr.Signature, 42)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if res.Kind != model.QRKindOrder || res.RefID != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	got := store.qrByID(qr.ID)
	if got.State != model.QRRedeemed {
		t.Errorf("expected redeemed, got %q", got.State)
	}
	if got.RedeemedBy == nil || *got.RedeemedBy != 42 {
		t.Error("redeemer not recorded")
	}
	if status := store.orderStatus(1); status != model.OrderServed {
		t.Errorf("expected order served after redemption, got %q", status)
	}
}

func TestRedeem_TicketRoundTrip(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	store.tickets[7] = &model.Ticket{ID: 7, UserID: 2, Status: model.TicketPaid}
	qr := seedQR(store, issuer, model.QRKindTicket, 7, nil)

	res, err := NewRedemption(store, issuer).Redeem(context.Background(), qr.Code, qr.Signature, 42)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if res.Kind != model.QRKindTicket || res.RefID != 7 {
		t.Errorf("unexpected result: %+v", res)
	}
	if status := store.ticketStatus(7); status != model.TicketRedeemed {
		t.Errorf("expected ticket redeemed, got %q", status)
	}
}

func TestRedeem_WrongSignature(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	seedOrder(store, 1, model.OrderPaid)
	qr := seedQR(store, issuer, model.QRKindOrder, 1, nil)

	_, err := NewRedemption(store, issuer).Redeem(context.Background(), qr.Code, "not-the-signature", 42)
	if !errors.Is(err, ErrInvalidOrUsed) {
		t.Fatalf("expected ErrInvalidOrUsed, got: %v", err)
	}
	// A failed attempt must not consume the code.
	if got := store.qrByID(qr.ID); got.State != model.QRActive {
		t.Errorf("code must stay active, got %q", got.State)
	}
}

func TestRedeem_UnknownCode(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)

	// A well-signed but never-issued code fails the same way as a bad
	// signature, so responses do not leak which codes exist.
	code := "never-issued-code"
	_, err := NewRedemption(store, issuer).Redeem(context.Background(), code, issuer.Sign(code), 42)
	if !errors.Is(err, ErrInvalidOrUsed) {
		t.Errorf("expected ErrInvalidOrUsed, got: %v", err)
	}
}

func TestRedeem_Expired(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	seedOrder(store, 1, model.OrderPaid)
	past := time.Now().UTC().Add(-time.Minute)
	qr := seedQR(store, issuer, model.QRKindOrder, 1, &past)

	_, err := NewRedemption(store, issuer).Redeem(context.Background(), qr.Code, qr.Signature, 42)
	if !errors.Is(err, ErrInvalidOrUsed) {
		t.Fatalf("expected ErrInvalidOrUsed for expired code, got: %v", err)
	}
	if status := store.orderStatus(1); status != model.OrderPaid {
		t.Errorf("order must be untouched, got %q", status)
	}
}

func TestRedeem_SecondAttemptFails(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	seedOrder(store, 1, model.OrderPaid)
	qr := seedQR(store, issuer, model.QRKindOrder, 1, nil)
	r := NewRedemption(store, issuer)

	if _, err := r.Redeem(context.Background(), qr.Code, qr.Signature, 42); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}
	_, err := r.Redeem(context.Background(), qr.Code, qr.Signature, 42)
	if !errors.Is(err, ErrInvalidOrUsed) {
		t.Errorf("expected ErrInvalidOrUsed on replay, got: %v", err)
	}
}

// Many scanners racing on one code: exactly one wins, the rest see
// ErrInvalidOrUsed.
func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	seedOrder(store, 1, model.OrderPaid)
	qr := seedQR(store, issuer, model.QRKindOrder, 1, nil)
	r := NewRedemption(store, issuer)

	const attempts = 20
	var won, lost int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(staff uint64) {
			defer wg.Done()
			_, err := r.Redeem(context.Background(), qr.Code, qr.Signature, staff)
			switch {
			case err == nil:
				atomic.AddInt64(&won, 1)
			case errors.Is(err, ErrInvalidOrUsed):
				atomic.AddInt64(&lost, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("expected exactly one winner, got %d", won)
	}
	if lost != attempts-1 {
		t.Errorf("expected %d losers, got %d", attempts-1, lost)
	}
}

// Payment followed by redemption, the way the two flows compose in
// production: the code coming out of PayOrder is accepted exactly
// once at the door.
func TestPayThenRedeem(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("test-secret", 240)
	store.stock[10] = 1
	seedOrder(store, 1, model.OrderPending, model.OrderItem{ProductID: 10, Qty: 1, UnitPriceCents: 500})
	f := NewFulfillment(store, issuer, stubRenderer{})
	r := NewRedemption(store, issuer)

	pay, err := f.PayOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	res, err := r.Redeem(context.Background(), pay.Code, pay.Signature, 42)
	if err != nil {
		t.Fatalf("redemption failed: %v", err)
	}
	if res.RefID != 1 {
		t.Errorf("expected order 1, got %d", res.RefID)
	}
	if _, err := r.Redeem(context.Background(), pay.Code, pay.Signature, 42); !errors.Is(err, ErrInvalidOrUsed) {
		t.Errorf("expected replay to fail, got: %v", err)
	}
}
