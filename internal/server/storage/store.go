// Package storage holds uploaded document bodies under server-chosen names.
package storage

import (
	"context"
	"io"
	"mime"
	"strings"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// Store persists document bodies. Names passed in are always produced by
// NewStoredName; backends still refuse anything that is not a single path
// element.
type Store interface {
	// Put writes r under storedName and returns the byte count. Bodies
	// longer than limit fail with *common.PayloadTooLargeError and leave
	// nothing behind.
	Put(ctx context.Context, storedName string, r io.Reader, limit int64) (int64, error)
	// Open returns the body or common.ErrorNotFound.
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedName string) error
	// Usage is the total size of stored bodies in bytes.
	Usage(ctx context.Context) (int64, error)
	// Check reports whether the backend is reachable.
	Check(ctx context.Context) error
	// Describe names the backend and its location for status output.
	Describe() (backend string, location string)
}

const DefaultContentType = "application/octet-stream"

// CheckContentType normalises a declared content type and checks it against
// the allowlist. An empty allowlist accepts everything. Parameters such as
// charset are ignored for the comparison but kept in the returned value.
func CheckContentType(declared string, allowed []string) (string, error) {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		declared = DefaultContentType
	}
	if len(allowed) == 0 {
		return declared, nil
	}

	media, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", &common.UnsupportedMediaTypeError{ContentType: declared, Allowed: allowed}
	}
	for _, a := range allowed {
		if strings.EqualFold(media, a) {
			return declared, nil
		}
	}
	return "", &common.UnsupportedMediaTypeError{ContentType: declared, Allowed: allowed}
}

// copyLimited copies at most limit bytes from r to w. Reading a byte past
// the limit aborts with *common.PayloadTooLargeError.
func copyLimited(w io.Writer, r io.Reader, limit int64) (int64, error) {
	n, err := io.Copy(w, io.LimitReader(r, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, &common.PayloadTooLargeError{Limit: limit}
	}
	return n, nil
}

// limitedReader counts what it hands out and fails with
// *common.PayloadTooLargeError once more than limit bytes were read. The
// error stays set so callers can tell it apart from transport failures.
type limitedReader struct {
	r     io.Reader
	limit int64
	n     int64
	err   error
}

func newLimitedReader(r io.Reader, limit int64) *limitedReader {
	if limit < 0 {
		limit = 0
	}
	return &limitedReader{r: r, limit: limit}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if room := l.limit + 1 - l.n; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.limit {
		l.err = &common.PayloadTooLargeError{Limit: l.limit}
		return n, l.err
	}
	return n, err
}
