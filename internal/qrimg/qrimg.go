// Package qrimg renders redemption payloads as scannable QR images.
// It is the only place in the codebase that knows anything about
// imaging; the payment flow sees it through the service.Renderer
// interface.
package qrimg

import (
    "encoding/base64"

    qrcode "github.com/skip2/go-qrcode"
)

// pixelSize is the edge length of the generated PNG. 256px scans
// reliably from phone screens at bar lighting.
const pixelSize = 256

// Renderer encodes payload strings into PNG data URLs suitable for
// direct use in an <img> tag or a mobile image view.
type Renderer struct{}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// RenderScannable returns a data URL containing a medium-redundancy
// QR code of the payload.
func (r *Renderer) RenderScannable(payload string) (string, error) {
    png, err := qrcode.Encode(payload, qrcode.Medium, pixelSize)
    if err != nil {
        return "", err
    }
    return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
