package scanning

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// EncodeImage reads an image file and returns its bytes as standard base64
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeImageURL reads an image file and returns it as a data URL
func EncodeImageURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	return fmt.Sprintf("data:%s;base64,%s", imageMimeType(data), base64.StdEncoding.EncodeToString(data)), nil
}

// imageMimeType sniffs the content type, defaulting to JPEG for anything that isn't a known image
func imageMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "image/jpeg"
	}
	return mimeType
}
