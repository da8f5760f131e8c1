// Package hash computes the content-addressable digest over canonical bytes.
// BLAKE3-256 is the preferred algorithm; SHA-256 is kept as a named fallback
// for environments or callers that need a FIPS-friendly digest, but the
// choice between them is fixed for a given deployment when the pipeline is
// constructed (admission.WithHashAlgorithm), never something the pipeline
// switches on per envelope.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Algorithm identifies which digest function produced a Digest.
type Algorithm string

const (
	AlgorithmBLAKE3 Algorithm = "blake3-256"
	AlgorithmSHA256 Algorithm = "sha256"
)

// Digest is a computed content hash together with the algorithm that
// produced it, so callers never have to guess which function a hex string
// came from.
type Digest struct {
	Algorithm Algorithm
	Bytes     []byte
}

// Hex returns the lowercase hex encoding of the digest bytes.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.Bytes)
}

// BLAKE3 hashes b with BLAKE3-256, the default algorithm for canonical
// envelope bytes.
func BLAKE3(b []byte) Digest {
	sum := blake3.Sum256(b)
	return Digest{Algorithm: AlgorithmBLAKE3, Bytes: sum[:]}
}

// SHA256 hashes b with SHA-256. Kept as the documented fallback algorithm:
// some downstream consumers of the digest (audit log shippers, older
// verifiers) only understand SHA-256, so a deployment can pin to it instead
// of BLAKE3 without the pipeline itself branching per request.
func SHA256(b []byte) Digest {
	sum := sha256.Sum256(b)
	return Digest{Algorithm: AlgorithmSHA256, Bytes: sum[:]}
}

// Of hashes b using the named algorithm. Unknown algorithms fall back to
// BLAKE3 since that is the pipeline default.
func Of(alg Algorithm, b []byte) Digest {
	if alg == AlgorithmSHA256 {
		return SHA256(b)
	}
	return BLAKE3(b)
}
