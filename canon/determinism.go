package canon

import "lukechampine.com/blake3"

// ProveDeterministic re-canonicalizes and re-hashes v the given number of
// times and reports whether every run produced the identical digest. This
// mirrors original_source's prove_snapshot_determinism.py, which rebuilds a
// snapshot from an event log `runs` times and checks the hash set collapses
// to one member; here the "rebuild" is canonicalization itself.
func ProveDeterministic(v Value, runs int) (stable bool, digest [32]byte, err error) {
	if runs < 1 {
		runs = 1
	}
	for i := 0; i < runs; i++ {
		b, cerr := Canonicalize(v)
		if cerr != nil {
			return false, [32]byte{}, cerr
		}
		d := blake3.Sum256(b)
		if i == 0 {
			digest = d
			stable = true
			continue
		}
		if d != digest {
			return false, digest, nil
		}
	}
	return stable, digest, nil
}
