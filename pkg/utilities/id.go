package utilities

import "github.com/segmentio/ksuid"

// NewRequestID generates a globally unique, sortable id for request tracing.
func NewRequestID() string {
	return ksuid.New().String()
}
