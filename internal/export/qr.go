package export

import (
	"bytes"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/img2grid/internal/classifier"
)

// DefaultQRSize is the side of the QR PNG in pixels.
const DefaultQRSize = 512

// WriteQR encodes the CSV form of the grid into a QR code PNG at path.
func WriteQR(path string, grid classifier.Grid, size int) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, grid); err != nil {
		return err
	}
	if err := qrcode.WriteFile(buf.String(), qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("%w: qr: %v", ErrExportFailure, err)
	}
	return nil
}
