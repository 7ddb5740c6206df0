package util

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID returns a short lowercase id identifying one batch run.
func NewRunID() string {
	id, err := gonanoid.Generate(runIDAlphabet, 12)
	if err != nil {
		return gonanoid.Must(12)
	}
	return id
}

// DocumentID derives a stable document id from a file path or URL:
// the base name without extension, lowercased, with every run of
// characters outside letters, digits, '-' and '_' replaced by a single '-'.
// A path with no usable characters gets "doc-" plus its PathHash.
func DocumentID(path string) string {
	base := filepath.Base(strings.TrimRight(path, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	b.Grow(len(base))
	lastDash := false
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
			lastDash = r == '-'
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	id := strings.Trim(b.String(), "-")
	if id == "" {
		return "doc-" + PathHash(path)
	}
	return id
}

// PathHash returns the first eight hex digits of the SHA-256 of path.
func PathHash(path string) string {
	h := sha256.Sum256([]byte(path))
	return hex.EncodeToString(h[:4])
}
