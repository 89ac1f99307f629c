package scanning

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned for strings that are not base64 data URIs
var ErrInvalidDataURI = errors.New("invalid data URI")

// EncodeDataURI builds a "data:<mime>;base64,<payload>" string
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its payload and MIME type
func DecodeDataURI(uri string) (Document, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Document{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Document{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}

	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Document{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	// Drop parameters such as ;charset=utf-8
	mimeType, _, _ = strings.Cut(mimeType, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		mimeType = "text/plain"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return Document{Data: data, MIMEType: mimeType}, nil
}

// IsDocumentType reports whether mimeType is one the app accepts as an
// invoice document: PDF or a raster image. SVG is refused since browsers
// run scripts embedded in it.
func IsDocumentType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/svg+xml" {
		return false
	}
	return mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/")
}
