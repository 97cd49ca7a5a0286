package models

import "time"

// Document is metadata for an uploaded file. StoredName is chosen by the
// server and is the only name ever used on the storage backend;
// OriginalName is client input and only ever echoed back.
type Document struct {
	ID           int64     `db:"id"`
	BinderID     int64     `db:"binder_id"`
	StoredName   string    `db:"stored_name"`
	OriginalName string    `db:"original_name"`
	ContentType  string    `db:"content_type"`
	Size         int64     `db:"size_bytes"`
	Note         string    `db:"note"`
	UploadedAt   time.Time `db:"uploaded_at"`
}
