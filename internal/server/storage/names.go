package storage

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

const (
	maxSanitizedLen = 120
	fallbackName    = "file"
	storedIDBytes   = 16
)

var ErrInvalidStoredName = errors.New("invalid stored name")

// SanitizeFilename reduces an untrusted client filename to a single safe
// path element made of [A-Za-z0-9._-].
func SanitizeFilename(original string) string {
	name := strings.ReplaceAll(original, `\`, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f || r == utf8.RuneError:
			// dropped
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxSanitizedLen {
		out = out[:maxSanitizedLen]
	}
	if out == "" {
		return fallbackName
	}
	return out
}

// NewStoredName returns "<32 random hex chars>_<sanitized original>".
func NewStoredName(original string) (string, error) {
	prefix, err := common.MakeRandHexString(storedIDBytes)
	if err != nil {
		return "", err
	}
	return prefix + "_" + SanitizeFilename(original), nil
}

// checkStoredName rejects anything that is not a single plain path element.
func checkStoredName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidStoredName
	}
	return nil
}
