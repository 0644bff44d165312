package sniffer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeHEIC MediaType = "heic"
	TypeSVG  MediaType = "svg"
)

var (
	ErrUnknownType = errors.New("unknown media type")
	ErrNotImage    = errors.New("content type is not an image")
	ErrMismatch    = errors.New("content does not match declared type")
)

type Result struct {
	Type MediaType
	MIME string
}

// DetectHead inspects the first bytes of a photo. Phone cameras mostly emit
// JPEG or HEIC; the rest come from gallery uploads.
func DetectHead(head []byte) (Result, error) {
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case len(head) == 0:
		return Result{}, ErrUnknownType
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, MIME: "image/webp"}, nil
	case isHEIC(head):
		return Result{Type: TypeHEIC, MIME: "image/heic"}, nil
	case isSVG(head):
		return Result{Type: TypeSVG, MIME: "image/svg+xml"}, nil
	}
	return Result{}, ErrUnknownType
}

// Check validates a photo against its declared content type. The declared type
// must be image/*; when the bytes are recognised they must agree with it.
// Unrecognised bytes are accepted under the declared type.
func Check(declared string, data []byte) (Result, error) {
	declared = BaseType(declared)
	if !IsImageContentType(declared) {
		return Result{}, fmt.Errorf("%w: %q", ErrNotImage, declared)
	}

	res, err := DetectHead(data)
	if errors.Is(err, ErrUnknownType) {
		return Result{MIME: declared}, nil
	}
	if !sameFamily(declared, res.MIME) {
		return Result{}, fmt.Errorf("%w: declared %s, found %s", ErrMismatch, declared, res.MIME)
	}
	return res, nil
}

func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(BaseType(contentType), "image/")
}

// BaseType strips parameters and lowercases a content type.
func BaseType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func MimeTypeFromHTTP(header http.Header) string {
	return BaseType(header.Get("Content-Type"))
}

func sameFamily(declared, detected string) bool {
	if declared == detected {
		return true
	}
	switch declared {
	case "image/jpg", "image/pjpeg":
		return detected == "image/jpeg"
	case "image/heif":
		return detected == "image/heic"
	}
	return false
}

func isJPEG(head []byte) bool {
	return len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}

func isPNG(head []byte) bool {
	magic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, magic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
}

func isHEIC(head []byte) bool {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return false
	}
	brand := string(head[8:12])
	return brand == "heic" || brand == "heix" || brand == "mif1" || brand == "msf1"
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	return strings.HasPrefix(trimmed, "<svg") || strings.HasPrefix(trimmed, "<?xml")
}
