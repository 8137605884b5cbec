package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/velardez/venue-pos/internal/model"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/venue_pos?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

// seedStock upserts a test product with the given on-hand quantity and
// returns its id.
func seedStock(t *testing.T, db *sql.DB, qty uint32) uint64 {
	t.Helper()
	ctx := context.Background()
	res, err := db.ExecContext(ctx,
		`INSERT INTO products (name, category, price_cents) VALUES (?, 'drink', 500)`,
		fmt.Sprintf("test-product-%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO stock (product_id, quantity) VALUES (?, ?)`, id, qty); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return uint64(id)
}

func TestDecrementStock_Conditional(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewSQLStore(db)
	productID := seedStock(t, db, 2)
	ctx := context.Background()

	// Spending exactly the on-hand quantity succeeds.
	err := store.WithinTx(ctx, func(tx Tx) error {
		return tx.DecrementStock(ctx, productID, 2)
	})
	if err != nil {
		t.Fatalf("decrement within stock failed: %v", err)
	}

	// The account is empty now; one more unit must fail and the
	// failed transaction must not change the row.
	err = store.WithinTx(ctx, func(tx Tx) error {
		return tx.DecrementStock(ctx, productID, 1)
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}

	var qty uint32
	if err := db.QueryRowContext(ctx,
		`SELECT quantity FROM stock WHERE product_id = ?`, productID).Scan(&qty); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if qty != 0 {
		t.Errorf("expected quantity 0, got %d", qty)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewSQLStore(db)
	productID := seedStock(t, db, 5)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.DecrementStock(ctx, productID, 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got: %v", err)
	}

	var qty uint32
	if err := db.QueryRowContext(ctx,
		`SELECT quantity FROM stock WHERE product_id = ?`, productID).Scan(&qty); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if qty != 5 {
		t.Errorf("expected quantity 5 after rollback, got %d", qty)
	}
}

func TestInsertQR_DuplicateCode(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewSQLStore(db)
	ctx := context.Background()
	code := fmt.Sprintf("it-%d", time.Now().UnixNano())

	mk := func() *model.QR {
		return &model.QR{
			Kind:      model.QRKindOrder,
			RefID:     1,
			Code:      code,
			Signature: "0000000000000000000000000000000000000000000000000000000000000000",
			State:     model.QRActive,
			CreatedAt: time.Now().UTC(),
		}
	}

	if err := store.WithinTx(ctx, func(tx Tx) error { return tx.InsertQR(ctx, mk()) }); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := store.WithinTx(ctx, func(tx Tx) error { return tx.InsertQR(ctx, mk()) })
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got: %v", err)
	}
}

func TestRedeemQR_ExactlyOnce(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewSQLStore(db)
	ctx := context.Background()
	code := fmt.Sprintf("it-%d", time.Now().UnixNano())
	sig := "1111111111111111111111111111111111111111111111111111111111111111"

	qr := &model.QR{
		Kind:      model.QRKindTicket,
		RefID:     1,
		Code:      code,
		Signature: sig,
		State:     model.QRActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.WithinTx(ctx, func(tx Tx) error { return tx.InsertQR(ctx, qr) }); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	now := time.Now().UTC()
	var got *model.QR
	err := store.WithinTx(ctx, func(tx Tx) error {
		q, err := tx.RedeemQR(ctx, code, sig, 42, now)
		got = q
		return err
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if got.State != model.QRRedeemed {
		t.Errorf("expected redeemed, got %q", got.State)
	}
	if got.RedeemedBy == nil || *got.RedeemedBy != 42 {
		t.Error("redeemer not recorded")
	}

	// A second flip of the same code must match zero rows.
	err = store.WithinTx(ctx, func(tx Tx) error {
		_, err := tx.RedeemQR(ctx, code, sig, 42, time.Now().UTC())
		return err
	})
	if !errors.Is(err, ErrNoActiveQR) {
		t.Fatalf("expected ErrNoActiveQR on replay, got: %v", err)
	}
}

func TestRedeemQR_Expired(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	store := NewSQLStore(db)
	ctx := context.Background()
	code := fmt.Sprintf("it-%d", time.Now().UnixNano())
	sig := "2222222222222222222222222222222222222222222222222222222222222222"
	past := time.Now().UTC().Add(-time.Minute)

	qr := &model.QR{
		Kind:      model.QRKindTicket,
		RefID:     1,
		Code:      code,
		Signature: sig,
		State:     model.QRActive,
		CreatedAt: past.Add(-time.Hour),
		ExpiresAt: &past,
	}
	if err := store.WithinTx(ctx, func(tx Tx) error { return tx.InsertQR(ctx, qr) }); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err := store.WithinTx(ctx, func(tx Tx) error {
		_, err := tx.RedeemQR(ctx, code, sig, 42, time.Now().UTC())
		return err
	})
	if !errors.Is(err, ErrNoActiveQR) {
		t.Fatalf("expected ErrNoActiveQR for expired code, got: %v", err)
	}
}
