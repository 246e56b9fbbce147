package util

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SniffMime detects the media type from the content, ignoring parameters.
func SniffMime(b []byte) string {
	m := mimetype.Detect(b)
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}

func IsImage(b []byte) bool {
	return strings.HasPrefix(SniffMime(b), "image/")
}

// IsAudio also accepts video containers, which often carry voice notes (mp4, webm).
func IsAudio(b []byte) bool {
	s := SniffMime(b)
	return strings.HasPrefix(s, "audio/") || strings.HasPrefix(s, "video/") || s == "application/ogg"
}

// DecodeBase64MaybeDataURL decodes base64; for a data: URI the MIME prefix is returned as well.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if strings.HasPrefix(s, "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hintMIME, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(s); err2 == nil {
		return b2, hintMIME, nil
	} else {
		return nil, "", err
	}
}

// PickMIME prefers the explicit type, then the data: URI hint, then content sniffing.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return SniffMime(data)
	}
	return "application/octet-stream"
}
