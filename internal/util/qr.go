package util

import (
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

// PrintTerminalQR draws value as a QR code made of half-block characters.
func PrintTerminalQR(w io.Writer, value string) error {
	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	_, err = fmt.Fprintln(w, qr.ToSmallString(false))
	return err
}
