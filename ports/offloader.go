package ports

import (
	"context"
)

// OffloadRequest is a serialized analysis payload correlated by ID
type OffloadRequest struct {
	ID      string
	Payload []byte
}

// OffloadResponse carries the encoded result or the worker's error message
type OffloadResponse struct {
	ID      string
	Payload []byte
	Err     string
}

// Offloader runs serialized analyses on a background pool. Cancelling ctx
// detaches the caller; the in-flight computation is not aborted.
type Offloader interface {
	Submit(ctx context.Context, req OffloadRequest) (OffloadResponse, error)
	Available() bool
}
