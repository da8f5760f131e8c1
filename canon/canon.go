package canon

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxDepth bounds recursion during canonicalization so that pathological
// nesting (an attacker-controlled envelope payload) cannot exhaust the
// stack. Chosen generously for legitimate deeply-nested payloads while
// still being far below Go's default goroutine stack growth limits.
const MaxDepth = 256

// Canonicalize serializes v to its unique canonical byte form per the
// normalization rules: NFC-normalized strings emitted as literal UTF-8 (no
// \uXXXX escaping beyond the mandatory control-character escapes), mapping
// keys sorted by UTF-8 byte sequence after NFC normalization, compact
// separators, and decimal integers with no leading zeros. Any two values
// that are semantically equal under these rules serialize to identical
// bytes; any two distinct normalized values serialize to distinct bytes.
func Canonicalize(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalInput builds the {header, meta, payload} triple that is hashed
// and signed. meta defaults to an empty mapping when absent. Construction
// order is irrelevant to the output bytes (the canonicalizer re-sorts keys
// regardless) but the three-key subset is exactly what gets signed — the
// signature field itself is deliberately excluded.
func CanonicalInput(header, meta, payload Value) Value {
	if meta.Kind != KindMapping {
		meta = Mapping(map[string]Value{})
	}
	return Mapping(map[string]Value{
		"header":  header,
		"meta":    meta,
		"payload": payload,
	})
}

func encode(buf *bytes.Buffer, v Value, depth int) error {
	if depth > MaxDepth {
		return newError(CodeMaxDepthExceeded, fmt.Sprintf("nesting exceeds max depth %d", MaxDepth))
	}

	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
		return nil
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
		return nil
	case KindFloat:
		return encodeFloat(buf, v.Float)
	case KindString:
		return encodeString(buf, v.Str)
	case KindSequence:
		buf.WriteByte('[')
		for i, elem := range v.Seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case KindMapping:
		return encodeMapping(buf, v.Map, depth)
	default:
		return newError(CodeForbiddenType, fmt.Sprintf("unsupported value kind %d", v.Kind))
	}
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return newError(CodeInvalidNumber, "non-finite number")
	}
	// strconv's shortest round-trippable representation ('g') gives the
	// minimal digit string without trailing zeros beyond what's necessary.
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// 'g' drops the decimal point entirely for whole-number floats (100.0 ->
	// "100"), which would be byte-identical to the integer 100. Force a
	// fractional marker so floats and integers never collide on the wire.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}

// encodeString NFC-normalizes s and writes it as a JSON string literal.
// Only the mandatory escapes (", \, and control characters below 0x20) are
// emitted; non-ASCII code points pass through as literal UTF-8 bytes rather
// than \uXXXX, matching the byte-exact wire format downstream digests and
// signatures are computed over.
func encodeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range normalized {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return nil
}

// encodeMapping NFC-normalizes every key, detects post-normalization
// collisions, sorts by UTF-8 byte sequence, and emits "key":value pairs with
// compact separators. CANON_NON_STRING_KEY has no reachable path through this
// Go port — map[string]Value enforces string keys at the type level, unlike
// the dynamically typed frontend this canonicalizer's error codes were
// ported from — but the code is kept registered (see codes.go) since callers
// match on it by name.
func encodeMapping(buf *bytes.Buffer, m map[string]Value, depth int) error {
	type normKey struct {
		original   string
		normalized string
	}
	keys := make([]normKey, 0, len(m))
	seen := make(map[string]string, len(m))
	for k := range m {
		nk := norm.NFC.String(k)
		if prior, exists := seen[nk]; exists {
			return newError(CodeDuplicateKeyAfterNormalize,
				fmt.Sprintf("keys %q and %q both normalize to %q", prior, k, nk))
		}
		seen[nk] = k
		keys = append(keys, normKey{original: k, normalized: nk})
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].normalized < keys[j].normalized
	})

	buf.WriteByte('{')
	for i, nk := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, nk.normalized); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, m[nk.original], depth+1); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
