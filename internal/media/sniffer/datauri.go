package sniffer

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// IsDataURI reports whether s is inline data rather than a link.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// ParseDataURI decodes "data:<type>[;base64],<payload>".
func ParseDataURI(s string) (contentType string, data []byte, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	encoded := false
	if strings.HasSuffix(header, ";base64") {
		encoded = true
		header = strings.TrimSuffix(header, ";base64")
	}
	contentType = BaseType(header)
	if contentType == "" {
		contentType = "text/plain"
	}

	if encoded {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, ErrInvalidDataURI
		}
		return contentType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURI
	}
	return contentType, []byte(unescaped), nil
}

func EncodeDataURI(contentType string, data []byte) string {
	return "data:" + BaseType(contentType) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
