package hash_test

import (
	"testing"

	"github.com/blockberries/immune-core/hash"
	"github.com/stretchr/testify/assert"
)

func TestBLAKE3_Deterministic(t *testing.T) {
	b := []byte(`{"header":{"type":"x"}}`)
	d1 := hash.BLAKE3(b)
	d2 := hash.BLAKE3(b)
	assert.Equal(t, d1.Bytes, d2.Bytes)
	assert.Equal(t, hash.AlgorithmBLAKE3, d1.Algorithm)
	assert.Len(t, d1.Bytes, 32)
}

func TestBLAKE3_DifferentInputsDifferentDigests(t *testing.T) {
	d1 := hash.BLAKE3([]byte("a"))
	d2 := hash.BLAKE3([]byte("b"))
	assert.NotEqual(t, d1.Hex(), d2.Hex())
}

func TestSHA256_Fallback(t *testing.T) {
	d := hash.SHA256([]byte("hello"))
	assert.Equal(t, hash.AlgorithmSHA256, d.Algorithm)
	assert.Len(t, d.Bytes, 32)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", d.Hex())
}

func TestOf_DispatchesByAlgorithm(t *testing.T) {
	b := []byte("payload")
	assert.Equal(t, hash.BLAKE3(b).Hex(), hash.Of(hash.AlgorithmBLAKE3, b).Hex())
	assert.Equal(t, hash.SHA256(b).Hex(), hash.Of(hash.AlgorithmSHA256, b).Hex())
	assert.Equal(t, hash.BLAKE3(b).Hex(), hash.Of("", b).Hex())
}

func TestDigest_HexIsLowercase(t *testing.T) {
	d := hash.BLAKE3([]byte("x"))
	for _, r := range d.Hex() {
		assert.False(t, r >= 'A' && r <= 'F')
	}
}
