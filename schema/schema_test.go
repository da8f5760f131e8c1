package schema_test

import (
	"os"
	"testing"

	"github.com/blockberries/immune-core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadValidator(t *testing.T) *schema.Validator {
	t.Helper()
	doc, err := os.ReadFile("testdata/envelope.schema.json")
	require.NoError(t, err)
	v, err := schema.Compile(doc)
	require.NoError(t, err)
	return v
}

func validEnvelopeJSON() []byte {
	return []byte(`{
		"header": {
			"id": "11111111-2222-4333-8444-555555555555",
			"timestamp": 123456789,
			"source_agent": "` + repeatHex(64) + `",
			"type": "state.mutation",
			"version": "1"
		},
		"meta": {"correlation_id": "abc", "security_level": "standard"},
		"payload": {"x": 1},
		"signature": "c2ln"
	}`)
}

func repeatHex(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}

func TestValidator_AcceptsWellFormedEnvelope(t *testing.T) {
	v := loadValidator(t)
	_, ok := v.ValidateJSON(validEnvelopeJSON())
	assert.True(t, ok)
}

func TestValidator_RejectsMissingHeaderField(t *testing.T) {
	v := loadValidator(t)
	raw := []byte(`{
		"header": {"id": "x", "timestamp": 1, "type": "t", "version": "1"},
		"payload": {},
		"signature": "c2ln"
	}`)
	msg, ok := v.ValidateJSON(raw)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestValidator_RejectsBadSourceAgentPattern(t *testing.T) {
	v := loadValidator(t)
	raw := []byte(`{
		"header": {
			"id": "11111111-2222-4333-8444-555555555555",
			"timestamp": 1,
			"source_agent": "not-hex",
			"type": "t",
			"version": "1"
		},
		"payload": {},
		"signature": "c2ln"
	}`)
	_, ok := v.ValidateJSON(raw)
	assert.False(t, ok)
}

func TestValidator_FirstErrorIsDeterministicByPointerOrder(t *testing.T) {
	v := loadValidator(t)
	// Both header.id and header.timestamp are invalid; header.id sorts first.
	raw := []byte(`{
		"header": {
			"id": 12345,
			"timestamp": "not-a-number",
			"source_agent": "` + repeatHex(64) + `",
			"type": "t",
			"version": "1"
		},
		"payload": {},
		"signature": "c2ln"
	}`)
	msg1, ok1 := v.ValidateJSON(raw)
	msg2, ok2 := v.ValidateJSON(raw)
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.Equal(t, msg1, msg2)
}

func TestValidator_RejectsUnknownTopLevelField(t *testing.T) {
	v := loadValidator(t)
	raw := []byte(`{
		"header": {
			"id": "11111111-2222-4333-8444-555555555555",
			"timestamp": 1,
			"source_agent": "` + repeatHex(64) + `",
			"type": "t",
			"version": "1"
		},
		"payload": {},
		"signature": "c2ln",
		"unexpected": true
	}`)
	_, ok := v.ValidateJSON(raw)
	assert.False(t, ok)
}
