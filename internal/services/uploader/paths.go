package uploader

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const maxSanitizedContactLength = 80

// SanitizeContact turns a contact name/phone into a storage-path segment:
// lowercase, spaces to '-', anything outside [a-z0-9-._] to '_', capped at
// 80 characters.
func SanitizeContact(contact string) string {
	s := strings.ToLower(strings.TrimSpace(contact))
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > maxSanitizedContactLength {
		out = out[:maxSanitizedContactLength]
	}
	return out
}

// ImagePath builds the object store path for one item image. itemOrdinal is
// the item's position in the session (3-padded); imageIndex is the image's
// ORIGINAL index in the captured list (2-padded), preserved so re-runs
// produce identical paths.
func ImagePath(userID, sessionID, contact string, itemOrdinal, imageIndex int) string {
	return fmt.Sprintf("users/%s/sessions/%s/%s/item-%03d/image-%02d.jpg",
		userID, sessionID, SanitizeContact(contact), itemOrdinal, imageIndex)
}

// ParseDataURL splits a data URL into content type and raw bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}

	contentType := meta
	if i := strings.Index(meta, ";"); i >= 0 {
		contentType = meta[:i]
		if !strings.Contains(meta, "base64") {
			return "", nil, fmt.Errorf("unsupported data URL encoding: %s", meta)
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return contentType, data, nil
}
