package fhe

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

const keySize = 32

func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("box.GenerateKey err: %w", err)
	}
	return &Keypair{PublicKey: pub[:], PrivateKey: priv[:]}, nil
}

// SealFor encrypts msg to a re-encryption public key with an anonymous
// sealed box.
func SealFor(publicKey []byte, msg []byte) ([]byte, error) {
	pk, err := toKey(publicKey)
	if err != nil {
		return nil, err
	}
	sealed, err := box.SealAnonymous(nil, msg, pk, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("box.SealAnonymous err: %w", err)
	}
	return sealed, nil
}

// Open reverses SealFor.
func (k *Keypair) Open(sealed []byte) ([]byte, error) {
	pub, err := toKey(k.PublicKey)
	if err != nil {
		return nil, err
	}
	priv, err := toKey(k.PrivateKey)
	if err != nil {
		return nil, err
	}
	msg, ok := box.OpenAnonymous(nil, sealed, pub, priv)
	if !ok {
		return nil, fmt.Errorf("cannot open sealed box")
	}
	return msg, nil
}

func toKey(b []byte) (*[keySize]byte, error) {
	if len(b) != keySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, keySize, len(b))
	}
	var k [keySize]byte
	copy(k[:], b)
	return &k, nil
}
