package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/velardez/venue-pos/internal/model"
	"github.com/velardez/venue-pos/internal/repository"
)

func TestSign_Deterministic(t *testing.T) {
	issuer := NewIssuer("secret-a", 0)
	s1 := issuer.Sign("some-code")
	s2 := issuer.Sign("some-code")
	if s1 != s2 {
		t.Errorf("same code signed twice gave %q and %q", s1, s2)
	}
	if len(s1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(s1))
	}
	if other := NewIssuer("secret-b", 0).Sign("some-code"); other == s1 {
		t.Error("different secrets produced the same signature")
	}
}

func TestVerify(t *testing.T) {
	issuer := NewIssuer("secret-a", 0)
	sig := issuer.Sign("some-code")
	if !issuer.Verify("some-code", sig) {
		t.Error("valid signature rejected")
	}
	if issuer.Verify("other-code", sig) {
		t.Error("signature accepted for the wrong code")
	}
	if issuer.Verify("some-code", "deadbeef") {
		t.Error("garbage signature accepted")
	}
}

func TestIssue_SetsFields(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("secret-a", 240)

	var qr *model.QR
	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var e error
		qr, e = issuer.Issue(context.Background(), tx, model.QRKindOrder, 5)
		return e
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if qr.ID == 0 {
		t.Error("inserted code has no id")
	}
	if qr.Kind != model.QRKindOrder || qr.RefID != 5 {
		t.Errorf("wrong binding: %+v", qr)
	}
	if qr.State != model.QRActive {
		t.Errorf("expected active, got %q", qr.State)
	}
	if len(qr.Code) != codeLength {
		t.Errorf("expected %d-char code, got %d", codeLength, len(qr.Code))
	}
	if !issuer.Verify(qr.Code, qr.Signature) {
		t.Error("issued signature does not verify")
	}
	if qr.ExpiresAt == nil {
		t.Fatal("expected expiry for ttl 240")
	}
	ttl := qr.ExpiresAt.Sub(qr.CreatedAt)
	if ttl != 240*time.Minute {
		t.Errorf("expected 240m ttl, got %v", ttl)
	}
}

func TestIssue_NoExpiryWhenTTLZero(t *testing.T) {
	store := newFakeStore()
	issuer := NewIssuer("secret-a", 0)

	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		qr, e := issuer.Issue(context.Background(), tx, model.QRKindTicket, 1)
		if e != nil {
			return e
		}
		if qr.ExpiresAt != nil {
			t.Errorf("expected no expiry, got %v", qr.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
}

func TestIssue_RetriesOnCollision(t *testing.T) {
	store := newFakeStore()
	store.dupNext = maxIssueAttempts - 1
	issuer := NewIssuer("secret-a", 0)

	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		_, e := issuer.Issue(context.Background(), tx, model.QRKindOrder, 1)
		return e
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got: %v", err)
	}
	if n := store.qrCount(); n != 1 {
		t.Errorf("expected exactly one persisted code, got %d", n)
	}
}

func TestIssue_FailsWhenAllAttemptsCollide(t *testing.T) {
	store := newFakeStore()
	store.dupNext = maxIssueAttempts
	issuer := NewIssuer("secret-a", 0)

	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		_, e := issuer.Issue(context.Background(), tx, model.QRKindOrder, 1)
		return e
	})
	if !errors.Is(err, ErrTokenIssuanceFailed) {
		t.Fatalf("expected ErrTokenIssuanceFailed, got: %v", err)
	}
	if n := store.qrCount(); n != 0 {
		t.Errorf("expected no persisted codes, got %d", n)
	}
}

func TestRandomCode_Charset(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode(codeLength)
		if err != nil {
			t.Fatalf("randomCode failed: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("expected length %d, got %d", codeLength, len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestPayload(t *testing.T) {
	qr := &model.QR{Code: "abc", Signature: "def"}
	got := Payload(qr)
	want := `{"c":"abc","s":"def"}`
	if got != want {
		t.Errorf("payload = %q, want %q", got, want)
	}
}
