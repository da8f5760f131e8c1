package canon_test

import (
	"testing"

	"github.com/blockberries/immune-core/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCanon(t *testing.T, v canon.Value) []byte {
	t.Helper()
	b, err := canon.Canonicalize(v)
	require.NoError(t, err)
	return b
}

func TestCanonicalize_KeysSortedByUTF8ByteOrder(t *testing.T) {
	// UTF-8 byte order: "A" (0x41) < "a" (0x61) < "é" (0xC3 0xA9).
	v := canon.Mapping(map[string]canon.Value{
		"é": canon.Int(3),
		"a": canon.Int(2),
		"A": canon.Int(1),
	})

	got := mustCanon(t, v)
	assert.Equal(t, "{\"A\":1,\"a\":2,\"é\":3}", string(got))
}

func TestCanonicalize_MapOrderInsensitive(t *testing.T) {
	v1, err := canon.FromJSON([]byte(`{"b":1,"a":{"d":2,"c":3}}`))
	require.NoError(t, err)
	v2, err := canon.FromJSON([]byte(`{"a":{"c":3,"d":2},"b":1}`))
	require.NoError(t, err)

	assert.Equal(t, mustCanon(t, v1), mustCanon(t, v2))
}

func TestCanonicalize_Determinism(t *testing.T) {
	v, err := canon.FromJSON([]byte("{\"payload\":{\"é\":\"accent\",\"items\":[{\"b\":2,\"a\":1},{\"z\":[3,2,1]}]},\"header\":{\"type\":\"state.mutation\"},\"meta\":{\"correlation_id\":\"x\"}}"))
	require.NoError(t, err)

	stable, _, err := canon.ProveDeterministic(v, 100)
	require.NoError(t, err)
	assert.True(t, stable)
}

func TestCanonicalize_NFCIdempotence(t *testing.T) {
	precomposed := canon.String("café")
	decomposed := canon.String("café")

	assert.Equal(t, mustCanon(t, precomposed), mustCanon(t, decomposed))
}

func TestCanonicalize_DuplicateKeyAfterNFCNormalization(t *testing.T) {
	// precomposed: U+00E9 (single code point "e with acute accent").
	// decomposed: U+0065 U+0301 ("e" plus a combining acute accent).
	// NFC folds both to the same normalized key, so this must collide.
	precomposed := "\u00e9"
	decomposed := "e\u0301"
	require.NotEqual(t, precomposed, decomposed, "test fixture must use distinct byte sequences")

	v := canon.Mapping(map[string]canon.Value{
		precomposed: canon.Int(1),
		decomposed:  canon.Int(2),
	})

	_, err := canon.Canonicalize(v)
	require.Error(t, err)
	var cerr *canon.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, canon.CodeDuplicateKeyAfterNormalize, cerr.Code)
}

func TestCanonicalize_NonFiniteFloatRejected(t *testing.T) {
	for _, f := range []float64{
		float64(1) / float64(0),  // +Inf
		float64(-1) / float64(0), // -Inf
	} {
		_, err := canon.Canonicalize(canon.Float(f))
		require.Error(t, err)
		var cerr *canon.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, canon.CodeInvalidNumber, cerr.Code)
	}
}

func TestCanonicalize_NaNRejected(t *testing.T) {
	nan := nanValue()
	_, err := canon.Canonicalize(canon.Float(nan))
	require.Error(t, err)
	assert.ErrorIs(t, err, canon.ErrInvalidNumber)
}

func TestCanonicalize_FloatAlwaysHasFractionOrExponent(t *testing.T) {
	assert.Equal(t, []byte("100.0"), mustCanon(t, canon.Float(100)))
	assert.Equal(t, []byte("-5.0"), mustCanon(t, canon.Float(-5)))
	assert.Equal(t, []byte("0.0"), mustCanon(t, canon.Float(0)))
	assert.Equal(t, []byte("3.14"), mustCanon(t, canon.Float(3.14)))
}

func TestCanonicalize_FloatAndIntegerNeverCollide(t *testing.T) {
	intBytes := mustCanon(t, canon.Int(100))
	floatBytes := mustCanon(t, canon.Float(100))
	assert.NotEqual(t, intBytes, floatBytes)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestCanonicalize_IntegersHaveNoLeadingZeros(t *testing.T) {
	assert.Equal(t, []byte("0"), mustCanon(t, canon.Int(0)))
	assert.Equal(t, []byte("-5"), mustCanon(t, canon.Int(-5)))
	assert.Equal(t, []byte("12345"), mustCanon(t, canon.Int(12345)))
}

func TestCanonicalize_SequenceOrderPreserved(t *testing.T) {
	v := canon.Sequence(canon.Int(3), canon.Int(1), canon.Int(2))
	assert.Equal(t, []byte("[3,1,2]"), mustCanon(t, v))
}

func TestCanonicalize_NonAsciiEmittedLiterally(t *testing.T) {
	got := mustCanon(t, canon.String("café"))
	assert.Equal(t, []byte("\"café\""), got)
	assert.NotContains(t, string(got), "\\u00e9")
}

func TestCanonicalize_ControlCharactersEscaped(t *testing.T) {
	got := mustCanon(t, canon.String("a\x01b"))
	assert.Equal(t, []byte(`"a\u0001b"`), got)
}

func TestCanonicalize_MaxDepthExceeded(t *testing.T) {
	v := canon.Int(0)
	for i := 0; i < canon.MaxDepth+10; i++ {
		v = canon.Sequence(v)
	}
	_, err := canon.Canonicalize(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, canon.ErrMaxDepthExceeded)
}

func TestResolveAndLegacyCode_AliasRoundTrip(t *testing.T) {
	assert.Equal(t, canon.CodeDuplicateKeyAfterNormalize,
		canon.ResolveCode("CANON_DUPLICATE_KEY_AFTER_NORMALIZE"))
	assert.Equal(t, "CANON_DUPLICATE_KEY_AFTER_NORMALIZE",
		canon.LegacyCode(canon.CodeDuplicateKeyAfterNormalize))
	assert.Equal(t, "CANON_FORBIDDEN_TYPE", canon.ResolveCode("CANON_FORBIDDEN_TYPE"))
}

func TestCanonicalInput_BuildsThreeKeySubset(t *testing.T) {
	header := canon.Mapping(map[string]canon.Value{"id": canon.String("x")})
	payload := canon.Mapping(map[string]canon.Value{"x": canon.Int(1)})

	v := canon.CanonicalInput(header, canon.Value{}, payload)
	got := mustCanon(t, v)
	assert.Equal(t, `{"header":{"id":"x"},"meta":{},"payload":{"x":1}}`, string(got))
}
