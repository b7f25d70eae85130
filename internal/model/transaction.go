package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction is a normalized transaction from any source.
// It is never persisted on its own; the pipeline consumes it immediately.
type Transaction struct {
	Date    time.Time
	Summary string // Vendor or description text
	Amount  float64

	// Optional metadata that may be available depending on source
	SourcePath string // Scanned document the transaction came from
	SourceKey  string // Stable identity used for deduplication (e.g. OFX FITID)
}

// Fingerprint creates a stable hash for sources that carry no identifier of their own.
func (t *Transaction) Fingerprint() string {
	data := fmt.Sprintf("%s:%.2f:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Summary)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
