package fhe

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"
)

// KMS owns the network key pair. Only the gateway holds one; clients see the
// public half.
type KMS struct {
	params bgv.Parameters
	sk     *rlwe.SecretKey
	pk     *rlwe.PublicKey

	mu        sync.Mutex
	encoder   *bgv.Encoder
	decryptor *rlwe.Decryptor
}

func GenerateKMS() (*KMS, error) {
	params, err := NewParameters()
	if err != nil {
		return nil, err
	}
	sk, pk := rlwe.NewKeyGenerator(params).GenKeyPairNew()
	return newKMS(params, sk, pk), nil
}

// LoadKMS restores a KMS from the output of MarshalSecretKey and PublicKey.
func LoadKMS(secretKey, publicKey []byte) (*KMS, error) {
	params, err := NewParameters()
	if err != nil {
		return nil, err
	}
	sk := new(rlwe.SecretKey)
	if err = sk.UnmarshalBinary(secretKey); err != nil {
		return nil, fmt.Errorf("sk.UnmarshalBinary err: %w", err)
	}
	pk := new(rlwe.PublicKey)
	if err = pk.UnmarshalBinary(publicKey); err != nil {
		return nil, fmt.Errorf("pk.UnmarshalBinary err: %w", err)
	}
	return newKMS(params, sk, pk), nil
}

func newKMS(params bgv.Parameters, sk *rlwe.SecretKey, pk *rlwe.PublicKey) *KMS {
	return &KMS{
		params:    params,
		sk:        sk,
		pk:        pk,
		encoder:   bgv.NewEncoder(params),
		decryptor: rlwe.NewDecryptor(params, sk),
	}
}

func (k *KMS) MarshalSecretKey() ([]byte, error) {
	return k.sk.MarshalBinary()
}

func (k *KMS) PublicKey() ([]byte, error) {
	return k.pk.MarshalBinary()
}

// Decrypt opens an envelope produced by any engine holding the matching
// public key.
func (k *KMS) Decrypt(envelope []byte) (*big.Int, FheType, error) {
	t, ct, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, 0, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	pt := bgv.NewPlaintext(k.params, ct.Level())
	k.decryptor.Decrypt(ct, pt)
	slots := make([]uint64, k.params.MaxSlots())
	if err = k.encoder.Decode(pt, slots); err != nil {
		return nil, 0, fmt.Errorf("encoder.Decode err: %w", err)
	}
	return fromLimbs(slots, limbCount(t)), t, nil
}
