package firebase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	fields := map[string]interface{}{
		"name":     "Sedan X",
		"uploaded": int64(7),
		"quality":  0.8,
		"active":   true,
		"images":   []string{"a.jpg", "b.jpg"},
		"at":       now,
	}

	decoded := DecodeFields(EncodeFields(fields))

	assert.Equal(t, "Sedan X", decoded["name"])
	assert.Equal(t, int64(7), decoded["uploaded"])
	assert.Equal(t, 0.8, decoded["quality"])
	assert.Equal(t, true, decoded["active"])
	assert.Equal(t, []interface{}{"a.jpg", "b.jpg"}, decoded["images"])
	assert.Equal(t, now, decoded["at"])
}

func TestEncodeValueInt(t *testing.T) {
	v := EncodeValue(42)
	require.NotNil(t, v.IntegerValue)
	assert.Equal(t, "42", *v.IntegerValue)
}

func TestEncodeValueNil(t *testing.T) {
	v := EncodeValue(nil)
	require.NotNil(t, v.NullValue)
	assert.Equal(t, "NULL_VALUE", *v.NullValue)
}

func TestEncodeValueNestedMap(t *testing.T) {
	v := EncodeValue(map[string]interface{}{
		"progress": map[string]interface{}{"success": int64(2)},
	})
	require.NotNil(t, v.MapValue)

	inner := v.MapValue.Fields["progress"]
	require.NotNil(t, inner.MapValue)
	require.NotNil(t, inner.MapValue.Fields["success"].IntegerValue)
	assert.Equal(t, "2", *inner.MapValue.Fields["success"].IntegerValue)
}

func TestDecodeValueBadInteger(t *testing.T) {
	bad := "not-a-number"
	// Unparseable integers come back as the raw string rather than panicking
	assert.Equal(t, bad, DecodeValue(Value{IntegerValue: &bad}))
}

func TestExtractDocumentPath(t *testing.T) {
	full := "projects/demo/databases/(default)/documents/users/u1/sessions/s1/items/i1"
	assert.Equal(t, "users/u1/sessions/s1/items/i1", ExtractDocumentPath(full))

	// Already-relative paths pass through untouched
	assert.Equal(t, "users/u1/sessions/s1", ExtractDocumentPath("users/u1/sessions/s1"))
}
