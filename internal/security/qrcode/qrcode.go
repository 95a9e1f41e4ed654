// Package qrcode renders provisioning URIs as scannable images. A rendering
// failure during registration is fatal: no Identity gets persisted without a
// code the user can actually enroll with.
package qrcode

import (
	"encoding/base64"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const pngSize = 256

// DataURI codifica uri como QR PNG y lo devuelve como data URI.
func DataURI(uri string) (string, error) {
	png, err := qr.Encode(uri, qr.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
