package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/velardez/venue-pos/internal/model"
	"github.com/velardez/venue-pos/internal/repository"
)

// fakeStore is an in-memory repository.Store for exercising the
// payment and redemption flows without MySQL. WithinTx snapshots the
// state before running fn and restores it if fn fails, so rollback
// semantics match the real store: an aborted payment leaves stock,
// statuses and codes untouched.
type fakeStore struct {
	mu      sync.Mutex
	orders  map[uint64]*model.Order
	tickets map[uint64]*model.Ticket
	stock   map[uint64]uint32 // product id -> on-hand quantity
	qrs     map[string]*model.QR
	nextQR  uint64

	// dupNext forces the next N InsertQR calls to collide, for
	// exercising the regenerate-and-retry loop.
	dupNext int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[uint64]*model.Order),
		tickets: make(map[uint64]*model.Ticket),
		stock:   make(map[uint64]uint32),
		qrs:     make(map[string]*model.QR),
	}
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&fakeTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	orders  map[uint64]*model.Order
	tickets map[uint64]*model.Ticket
	stock   map[uint64]uint32
	qrs     map[string]*model.QR
	nextQR  uint64
}

func (s *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		orders:  make(map[uint64]*model.Order, len(s.orders)),
		tickets: make(map[uint64]*model.Ticket, len(s.tickets)),
		stock:   make(map[uint64]uint32, len(s.stock)),
		qrs:     make(map[string]*model.QR, len(s.qrs)),
		nextQR:  s.nextQR,
	}
	for id, o := range s.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for id, t := range s.tickets {
		c := *t
		snap.tickets[id] = &c
	}
	for id, q := range s.stock {
		snap.stock[id] = q
	}
	for code, q := range s.qrs {
		c := *q
		snap.qrs[code] = &c
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.orders = snap.orders
	s.tickets = snap.tickets
	s.stock = snap.stock
	s.qrs = snap.qrs
	s.nextQR = snap.nextQR
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	return &c
}

// qrByID walks the code index; only used by assertions.
func (s *fakeStore) qrByID(id uint64) *model.QR {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.qrs {
		if q.ID == id {
			c := *q
			return &c
		}
	}
	return nil
}

func (s *fakeStore) orderStatus(id uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return o.Status
	}
	return ""
}

func (s *fakeStore) ticketStatus(id uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[id]; ok {
		return t.Status
	}
	return ""
}

func (s *fakeStore) stockOf(productID uint64) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[productID]
}

func (s *fakeStore) qrCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.qrs)
}

// fakeTx mutates the store directly; WithinTx already holds the lock
// and handles rollback.
type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) OrderForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneOrder(o), nil
}

func (t *fakeTx) SetOrderStatus(ctx context.Context, id uint64, status string) error {
	o, ok := t.s.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.Status = status
	return nil
}

func (t *fakeTx) AttachOrderQR(ctx context.Context, orderID, qrID uint64) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return sql.ErrNoRows
	}
	o.QRID = &qrID
	return nil
}

func (t *fakeTx) TicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
	tk, ok := t.s.tickets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *tk
	return &c, nil
}

func (t *fakeTx) SetTicketStatus(ctx context.Context, id uint64, status string) error {
	tk, ok := t.s.tickets[id]
	if !ok {
		return sql.ErrNoRows
	}
	tk.Status = status
	return nil
}

func (t *fakeTx) AttachTicketQR(ctx context.Context, ticketID, qrID uint64) error {
	tk, ok := t.s.tickets[ticketID]
	if !ok {
		return sql.ErrNoRows
	}
	tk.QRID = &qrID
	return nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID uint64, qty uint32) error {
	have, ok := t.s.stock[productID]
	if !ok || have < qty {
		return repository.ErrInsufficientStock
	}
	t.s.stock[productID] = have - qty
	return nil
}

func (t *fakeTx) InsertQR(ctx context.Context, qr *model.QR) error {
	if t.s.dupNext > 0 {
		t.s.dupNext--
		return repository.ErrDuplicateCode
	}
	if _, exists := t.s.qrs[qr.Code]; exists {
		return repository.ErrDuplicateCode
	}
	t.s.nextQR++
	qr.ID = t.s.nextQR
	c := *qr
	t.s.qrs[qr.Code] = &c
	return nil
}

func (t *fakeTx) RedeemQR(ctx context.Context, code, signature string, redeemedBy uint64, now time.Time) (*model.QR, error) {
	q, ok := t.s.qrs[code]
	if !ok || q.Signature != signature || q.State != model.QRActive {
		return nil, repository.ErrNoActiveQR
	}
	if q.ExpiresAt != nil && !q.ExpiresAt.After(now) {
		return nil, repository.ErrNoActiveQR
	}
	q.State = model.QRRedeemed
	q.RedeemedAt = &now
	q.RedeemedBy = &redeemedBy
	c := *q
	return &c, nil
}

// stubRenderer avoids PNG encoding in service tests.
type stubRenderer struct{}

func (stubRenderer) RenderScannable(payload string) (string, error) {
	return "data:image/png;base64,stub:" + payload, nil
}
