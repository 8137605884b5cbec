package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/velardez/venue-pos/internal/model"
	"github.com/velardez/venue-pos/internal/repository"
)

func newTestFulfillment(store *fakeStore) *Fulfillment {
	return NewFulfillment(store, NewIssuer("test-secret", 240), stubRenderer{})
}

func seedOrder(store *fakeStore, id uint64, status string, items ...model.OrderItem) {
	var total uint32
	for _, it := range items {
		total += it.Qty * it.UnitPriceCents
	}
	store.orders[id] = &model.Order{
		ID:         id,
		UserID:     1,
		Type:       model.OrderTypeBar,
		Status:     status,
		TotalCents: total,
		Items:      items,
	}
}

func TestPayOrder_Success(t *testing.T) {
	store := newFakeStore()
	store.stock[10] = 2
	seedOrder(store, 1, model.OrderPending, model.OrderItem{ProductID: 10, Qty: 2, UnitPriceCents: 500})

	res, err := newTestFulfillment(store).PayOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if res.Kind != model.QRKindOrder || res.RefID != 1 {
		t.Errorf("unexpected result identity: %+v", res)
	}
	if res.Code == "" || res.Signature == "" || res.PNG == "" {
		t.Errorf("result missing code material: %+v", res)
	}
	if res.AmountCents != 1000 {
		t.Errorf("expected amount 1000 cents, got %d", res.AmountCents)
	}
	if got := store.stockOf(10); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if got := store.orderStatus(1); got != model.OrderPaid {
		t.Errorf("expected order paid, got %q", got)
	}
	qr := store.qrByID(res.QRID)
	if qr == nil {
		t.Fatal("issued code not persisted")
	}
	if qr.State != model.QRActive {
		t.Errorf("expected active code, got %q", qr.State)
	}
	if qr.ExpiresAt == nil {
		t.Error("expected expiry to be set for nonzero ttl")
	}
	if store.orders[1].QRID == nil || *store.orders[1].QRID != res.QRID {
		t.Error("code not attached to order")
	}
}

func TestPayOrder_InsufficientStockRollsBack(t *testing.T) {
	store := newFakeStore()
	store.stock[10] = 1
	store.stock[11] = 5
	seedOrder(store, 1, model.OrderPending,
		model.OrderItem{ProductID: 11, Qty: 3, UnitPriceCents: 300},
		model.OrderItem{ProductID: 10, Qty: 2, UnitPriceCents: 500},
	)

	_, err := newTestFulfillment(store).PayOrder(context.Background(), 1)
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}
	// The first line decremented before the second failed; the whole
	// unit must have rolled back.
	if got := store.stockOf(11); got != 5 {
		t.Errorf("expected stock 5 after rollback, got %d", got)
	}
	if got := store.stockOf(10); got != 1 {
		t.Errorf("expected stock 1 after rollback, got %d", got)
	}
	if got := store.orderStatus(1); got != model.OrderPending {
		t.Errorf("expected order still pending, got %q", got)
	}
	if n := store.qrCount(); n != 0 {
		t.Errorf("expected no codes issued, got %d", n)
	}
}

func TestPayOrder_NotFound(t *testing.T) {
	store := newFakeStore()
	_, err := newTestFulfillment(store).PayOrder(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestPayOrder_AlreadyPaid(t *testing.T) {
	store := newFakeStore()
	store.stock[10] = 5
	seedOrder(store, 1, model.OrderPaid, model.OrderItem{ProductID: 10, Qty: 1, UnitPriceCents: 500})

	_, err := newTestFulfillment(store).PayOrder(context.Background(), 1)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
	if got := store.stockOf(10); got != 5 {
		t.Errorf("stock must be untouched, got %d", got)
	}
}

// Concurrent payments racing on the same product must never drive
// stock negative: with 5 units and 8 single-unit orders, exactly 5
// payments succeed and the rest fail with ErrInsufficientStock.
func TestPayOrder_ConcurrentNeverOversells(t *testing.T) {
	store := newFakeStore()
	const initial = 5
	const orders = 8
	store.stock[10] = initial
	for i := uint64(1); i <= orders; i++ {
		seedOrder(store, i, model.OrderPending, model.OrderItem{ProductID: 10, Qty: 1, UnitPriceCents: 500})
	}
	f := newTestFulfillment(store)

	var ok, insufficient int64
	var wg sync.WaitGroup
	for i := uint64(1); i <= orders; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := f.PayOrder(context.Background(), id)
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, repository.ErrInsufficientStock):
				atomic.AddInt64(&insufficient, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != initial {
		t.Errorf("expected %d successful payments, got %d", initial, ok)
	}
	if insufficient != orders-initial {
		t.Errorf("expected %d stock failures, got %d", orders-initial, insufficient)
	}
	if got := store.stockOf(10); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if n := store.qrCount(); int64(n) != ok {
		t.Errorf("expected one code per successful payment, got %d codes for %d payments", n, ok)
	}
}

func TestPayTicket_Success(t *testing.T) {
	store := newFakeStore()
	store.tickets[7] = &model.Ticket{ID: 7, UserID: 2, PriceCents: 1500, Status: model.TicketIssued}

	res, err := newTestFulfillment(store).PayTicket(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if res.Kind != model.QRKindTicket || res.RefID != 7 {
		t.Errorf("unexpected result identity: %+v", res)
	}
	if res.AmountCents != 1500 {
		t.Errorf("expected amount 1500 cents, got %d", res.AmountCents)
	}
	if got := store.ticketStatus(7); got != model.TicketPaid {
		t.Errorf("expected ticket paid, got %q", got)
	}
	if store.tickets[7].QRID == nil || *store.tickets[7].QRID != res.QRID {
		t.Error("code not attached to ticket")
	}
}

func TestPayTicket_AlreadyPaid(t *testing.T) {
	store := newFakeStore()
	store.tickets[7] = &model.Ticket{ID: 7, UserID: 2, PriceCents: 1500, Status: model.TicketPaid}

	_, err := newTestFulfillment(store).PayTicket(context.Background(), 7)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
	if n := store.qrCount(); n != 0 {
		t.Errorf("expected no codes issued, got %d", n)
	}
}

func TestPayTicket_NotFound(t *testing.T) {
	store := newFakeStore()
	_, err := newTestFulfillment(store).PayTicket(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
