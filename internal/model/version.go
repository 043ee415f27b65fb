package model

import "time"

// Version is one immutable uploaded revision of a Document's content.
// VersionNumber starts at 1 and strictly increases per document; numbers are
// never renumbered or reused after a delete. ContentKey is the opaque locator
// of the blob in object storage; OriginalFilename is kept only for display and
// download naming and is never part of the storage key.
type Version struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	VersionNumber    int       `json:"version_number"`
	ContentKey       string    `json:"content_key"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
}
