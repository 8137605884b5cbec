// Package service contains the transactional core of the POS: mock
// payment of orders and tickets, QR issuance, and QR redemption. All
// state mutations flow through the repository.Store unit of work so
// each operation commits completely or not at all.
package service

import (
    "context"
    "crypto/hmac"
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "time"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// codeAlphabet is URL-safe and 64 characters long, so mapping random
// bytes with a simple mask introduces no modulo bias.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// codeLength is the fixed length of issued codes. 64^16 possible
// values keep blind guessing hopeless while staying short enough for a
// dense, fast-scanning QR image.
const codeLength = 16

// maxIssueAttempts bounds the regenerate-and-retry loop on a
// unique-index collision before issuance is reported as failed.
const maxIssueAttempts = 3

// ErrTokenIssuanceFailed is returned when every issuance attempt
// collided with an existing code. With a 16-character code this is
// effectively unreachable outside of a broken random source.
var ErrTokenIssuanceFailed = errors.New("token issuance failed")

// Issuer creates signed single-use redemption codes. The signing
// secret is injected at construction; nothing in this package reads
// the environment.
type Issuer struct {
    secret []byte
    ttl    time.Duration
}

// NewIssuer returns an Issuer signing with the given secret. ttlMin
// sets the code lifetime in minutes; zero means codes never expire.
func NewIssuer(secret string, ttlMin int) *Issuer {
    return &Issuer{
        secret: []byte(secret),
        ttl:    time.Duration(ttlMin) * time.Minute,
    }
}

// Sign returns the hex HMAC-SHA256 of code under the issuer secret.
// The signature cannot be produced without the secret, which is what
// makes a bare leaked code worthless at the door.
func (i *Issuer) Sign(code string) string {
    mac := hmac.New(sha256.New, i.secret)
    mac.Write([]byte(code))
    return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct signature for code.
// The comparison is constant time.
func (i *Issuer) Verify(code, signature string) bool {
    return hmac.Equal([]byte(i.Sign(code)), []byte(signature))
}

// Issue generates a fresh code, signs it and persists it through the
// supplied unit of work with state active. A collision on the unique
// code index triggers regeneration, capped at maxIssueAttempts. The
// insert shares the caller's transaction, so an aborted payment never
// leaves a stray code behind.
func (i *Issuer) Issue(ctx context.Context, tx repository.Tx, kind string, refID uint64) (*model.QR, error) {
    for attempt := 0; attempt < maxIssueAttempts; attempt++ {
        code, err := randomCode(codeLength)
        if err != nil {
            return nil, err
        }
        now := time.Now().UTC()
        qr := &model.QR{
            Kind:      kind,
            RefID:     refID,
            Code:      code,
            Signature: i.Sign(code),
            State:     model.QRActive,
            CreatedAt: now,
        }
        if i.ttl > 0 {
            exp := now.Add(i.ttl)
            qr.ExpiresAt = &exp
        }
        err = tx.InsertQR(ctx, qr)
        if errors.Is(err, repository.ErrDuplicateCode) {
            continue
        }
        if err != nil {
            return nil, err
        }
        return qr, nil
    }
    return nil, ErrTokenIssuanceFailed
}

// Payload returns the string embedded in the scannable image: a JSON
// object with the code and its signature under short keys.
func Payload(qr *model.QR) string {
    b, _ := json.Marshal(struct {
        C string `json:"c"`
        S string `json:"s"`
    }{C: qr.Code, S: qr.Signature})
    return string(b)
}

// randomCode draws n characters from codeAlphabet using crypto/rand.
func randomCode(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    out := make([]byte, n)
    for i, b := range buf {
        out[i] = codeAlphabet[b&63]
    }
    return string(out), nil
}
