package sdk

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Decrypter is the decryption half of FhevmClient.
type Decrypter interface {
	RequestDecrypt(ctx context.Context, contractAddress, handle string) (*big.Int, error)
	BatchDecrypt(ctx context.Context, requests []DecryptionRequest) ([]DecryptionResult, error)
}

var _ Decrypter = (*FhevmClient)(nil)

func DecryptToNumber(ctx context.Context, d Decrypter, contractAddress, handle string) (uint64, error) {
	v, err := d.RequestDecrypt(ctx, contractAddress, handle)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: decrypted value %s overflows uint64", ErrValidation, v)
	}
	return v.Uint64(), nil
}

// DecryptToBoolean treats any non-zero plaintext as true.
func DecryptToBoolean(ctx context.Context, d Decrypter, contractAddress, handle string) (bool, error) {
	v, err := d.RequestDecrypt(ctx, contractAddress, handle)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// DecryptRating logs a warning, but still returns the value, when the
// plaintext is outside 1-10.
func DecryptRating(ctx context.Context, d Decrypter, contractAddress, handle string) (uint64, error) {
	rating, err := DecryptToNumber(ctx, d, contractAddress, handle)
	if err != nil {
		return 0, err
	}
	if rating < 1 || rating > 10 {
		log.Warn().Uint64("rating", rating).Str("handle", handle).Msg("decrypted rating outside expected range")
	}
	return rating, nil
}

// DecryptAmount returns the plaintext divided by 10^decimals as a decimal
// string.
func DecryptAmount(ctx context.Context, d Decrypter, contractAddress, handle string, decimals uint) (string, error) {
	v, err := d.RequestDecrypt(ctx, contractAddress, handle)
	if err != nil {
		return "", err
	}
	return FormatDecrypted(v, decimals), nil
}

func BatchDecryptFromContract(ctx context.Context, d Decrypter, contractAddress string, handles []string) ([]DecryptionResult, error) {
	requests := make([]DecryptionRequest, len(handles))
	for i, h := range handles {
		requests[i] = DecryptionRequest{ContractAddress: contractAddress, Handle: h}
	}
	return d.BatchDecrypt(ctx, requests)
}

type RetryPolicy struct {
	// MaxRetries is the total number of attempts. Zero means
	// DefaultMaxRetries.
	MaxRetries int
	// Delay is the fixed pause between attempts. Zero means
	// DefaultRetryDelay.
	Delay time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// DecryptWithRetry retries RequestDecrypt with a constant delay between
// attempts and none after the last. Cancelling ctx stops further attempts.
func DecryptWithRetry(ctx context.Context, d Decrypter, contractAddress, handle string, policy RetryPolicy) (*big.Int, error) {
	policy = policy.withDefaults()
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.MaxRetries-1)),
		ctx,
	)

	var (
		value    *big.Int
		attempts int
		lastErr  error
	)
	err := backoff.Retry(func() error {
		attempts++
		v, err := d.RequestDecrypt(ctx, contractAddress, handle)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Int("attempt", attempts).Str("handle", handle).Msg("decrypt attempt failed")
			return err
		}
		value = v
		return nil
	}, b)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("failed to decrypt after %d attempts: %w", attempts, lastErr)
	}
	return value, nil
}

// FormatDecrypted renders value as a fixed point decimal with decimals
// fractional digits. With zero decimals it is the plain integer.
func FormatDecrypted(value *big.Int, decimals uint) string {
	return utils.FormatUnits(value, decimals)
}
