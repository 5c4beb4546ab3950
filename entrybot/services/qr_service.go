package services

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// qrModulePixels matches a box size of 10 pixels per module.
const qrModulePixels = -10

// QRService builds the public check-in links and their QR images.
type QRService struct {
	baseURL string
}

func NewQRService(baseURL string) *QRService {
	return &QRService{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *QRService) BaseURL() string {
	return s.baseURL
}

// CheckinURL is the page a scanned code opens.
func (s *QRService) CheckinURL(code string) string {
	return fmt.Sprintf("%s/?loc=%s", s.baseURL, url.QueryEscape(code))
}

// ImageURL is where the PNG for a venue code is served.
func (s *QRService) ImageURL(code string) string {
	return fmt.Sprintf("%s/qr/%s.png", s.baseURL, url.PathEscape(code))
}

func (s *QRService) PNG(code string) ([]byte, error) {
	png, err := qrcode.Encode(s.CheckinURL(code), qrcode.Medium, qrModulePixels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
