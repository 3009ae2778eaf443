// Package id provides request identifiers for log correlation.
package id

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generate creates a new unique request ID.
// Format: note-<timestamp>-<first uuid group>
// Example: note-1701432000-a1b2c3d4
func Generate() string {
	u := uuid.New()
	return fmt.Sprintf("note-%d-%s", time.Now().Unix(), u.String()[:8])
}
