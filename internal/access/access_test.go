package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode_JSON(t *testing.T) {
	assert.Equal(t, []string{"unit_a", "unit_b"}, Decode(`["unit_a", "unit_b"]`))
}

func TestDecode_LiteralList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Decode(`['a', 'b']`))
}

func TestDecode_QuoteRepair(t *testing.T) {
	// Mixed content that the literal parser rejects but quote
	// substitution turns into valid JSON.
	assert.Equal(t, []string{"a b", "c,d"}, Decode(`['a b', 'c,d']`))
	assert.Empty(t, Decode(`{'not': 'a list'}`))
}

func TestDecode_Empty(t *testing.T) {
	assert.Empty(t, Decode(""))
	assert.Empty(t, Decode("   "))
	assert.Empty(t, Decode("null"))
	assert.Empty(t, Decode("[]"))
	assert.Empty(t, Decode("['']"))
}

func TestDecode_Garbage(t *testing.T) {
	assert.Empty(t, Decode("not json at all"))
	assert.Empty(t, Decode("[unterminated"))
	assert.Empty(t, Decode(`['a', unquoted]`))
}

func TestDecode_Dedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Decode(`["a", "b", "a"]`))
}

func TestEncode_RoundTrip(t *testing.T) {
	encoded := Encode([]string{"unit_a", "unit_b"})
	assert.Equal(t, `["unit_a","unit_b"]`, encoded)
	assert.Equal(t, []string{"unit_a", "unit_b"}, Decode(encoded))
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "", Encode([]string{}))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(`["a", "b"]`, "b"))
	assert.False(t, Contains(`["a", "b"]`, "c"))
	assert.False(t, Contains("", "a"))
}
