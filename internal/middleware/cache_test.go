package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
    cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 32}
    if _, err := cw.Write([]byte("hello ")); err != nil {
        t.Fatalf("write: %v", err)
    }
    if _, err := cw.Write([]byte("world")); err != nil {
        t.Fatalf("write: %v", err)
    }
    if cw.overflowed() {
        t.Error("11 bytes against a 32 byte limit must not overflow")
    }
    if got := cw.buf.String(); got != "hello world" {
        t.Errorf("captured %q, want %q", got, "hello world")
    }
}

func TestCaptureWriterOverflowIsNeverStorable(t *testing.T) {
    // A body past the limit is only partially buffered; overflowed must
    // report it so the middleware skips the store instead of caching a
    // truncated response.
    cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 8}
    if _, err := cw.Write([]byte(strings.Repeat("x", 20))); err != nil {
        t.Fatalf("write: %v", err)
    }
    if !cw.overflowed() {
        t.Fatal("20 bytes against an 8 byte limit must overflow")
    }
    if cw.size != 20 {
        t.Errorf("size = %d, want 20", cw.size)
    }
    if cw.buf.Len() > 8 {
        t.Errorf("buffered %d bytes, limit is 8", cw.buf.Len())
    }
}

func TestCaptureWriterUnlimited(t *testing.T) {
    cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
    big := strings.Repeat("y", 4096)
    if _, err := cw.Write([]byte(big)); err != nil {
        t.Fatalf("write: %v", err)
    }
    if cw.overflowed() {
        t.Error("no limit configured, nothing can overflow")
    }
    if cw.buf.Len() != len(big) {
        t.Errorf("captured %d bytes, want %d", cw.buf.Len(), len(big))
    }
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{}
    hdr.Set("Content-Type", "application/json")
    body := []byte(`[{"id":1,"name":"beer"}]`)

    payload, err := encodePayload(http.StatusOK, hdr, body)
    if err != nil {
        t.Fatalf("encode: %v", err)
    }
    status, gotHdr, gotBody, ok := decodePayload(payload)
    if !ok {
        t.Fatal("decode rejected its own encoding")
    }
    if status != http.StatusOK {
        t.Errorf("status = %d, want %d", status, http.StatusOK)
    }
    if gotHdr.Get("Content-Type") != "application/json" {
        t.Errorf("content type = %q", gotHdr.Get("Content-Type"))
    }
    if string(gotBody) != string(body) {
        t.Errorf("body = %q, want %q", gotBody, body)
    }
}
