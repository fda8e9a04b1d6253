package protocol

import (
	"crypto/aes"
	"crypto/cipher"
)

// Cipher mixes a whole frame with two block-cipher invocations so that every
// plaintext byte influences the first ciphertext block. It offers
// confidentiality only; frames carry no authentication tag.
type Cipher struct {
	block cipher.Block
}

// NewCipher returns a frame cipher keyed with a 16-byte AES-128 key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 16 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// NewCipherFromBlock wraps an existing 16-byte block cipher.
func NewCipherFromBlock(block cipher.Block) (*Cipher, error) {
	if block == nil || block.BlockSize() != BlockSize {
		return nil, ErrInvalidKey
	}
	return &Cipher{block: block}, nil
}

// Encrypt transforms frame in place: B' = E(B), A' = A^B', out = E(A') || B'.
func (c *Cipher) Encrypt(frame *[FrameSize]byte) {
	a, b := frame[:BlockSize], frame[BlockSize:]
	c.block.Encrypt(b, b)
	for i := 0; i < BlockSize; i++ {
		a[i] ^= b[i]
	}
	c.block.Encrypt(a, a)
}

// Decrypt reverses Encrypt in place.
func (c *Cipher) Decrypt(frame *[FrameSize]byte) {
	a, b := frame[:BlockSize], frame[BlockSize:]
	c.block.Decrypt(a, a)
	for i := 0; i < BlockSize; i++ {
		a[i] ^= b[i]
	}
	c.block.Decrypt(b, b)
}
