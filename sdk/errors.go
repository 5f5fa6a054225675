package sdk

import (
	"github.com/pkg/errors"
)

// Every error returned by FhevmClient and the helpers in this package wraps
// at least one of these.
var (
	// ErrUninitialized is returned by operations attempted before Init
	// succeeded.
	ErrUninitialized = errors.New("FHEVM client not initialized")
	// ErrPartiallyInitialized is returned by decrypt operations on a client
	// initialized without a signer.
	ErrPartiallyInitialized = errors.New("FHEVM client not fully initialized")
	ErrValidation           = errors.New("validation failed")
	ErrInitialization       = errors.New("FHEVM client initialization failed")
	ErrDecryption           = errors.New("decryption failed")
	ErrBatchFailure         = errors.New("batch decryption failed")
)
