package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Состояние после Redis проходит через json.Unmarshal, локальное — нет.
// Оба представления должны читаться одинаково.
func TestUserStateGetters_NativeAndJSON(t *testing.T) {
	native := &UserState{TempData: map[string]interface{}{
		"product_id": int64(5),
		"price":      19.99,
		"name":       "Чай",
	}}

	raw, err := json.Marshal(native.TempData)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	fromRedis := &UserState{TempData: decoded}

	for _, s := range []*UserState{native, fromRedis} {
		assert.Equal(t, int64(5), s.GetInt64("product_id"))
		assert.Equal(t, 19.99, s.GetFloat64("price"))
		assert.Equal(t, "Чай", s.GetString("name"))
		assert.True(t, s.Has("name"))
		assert.False(t, s.Has("missing"))
	}
}

func TestDataCoercions(t *testing.T) {
	data := map[string]interface{}{
		"as_number": json.Number("42"),
		"as_string": "3.5",
		"as_int":    7,
		"skipped":   nil,
	}

	assert.Equal(t, int64(42), DataInt64(data, "as_number"))
	assert.Equal(t, int64(7), DataInt64(data, "as_int"))
	assert.Equal(t, 3.5, DataFloat64(data, "as_string"))
	assert.Equal(t, float64(42), DataFloat64(data, "as_number"))
	assert.Equal(t, "", DataString(data, "skipped"))
	assert.Equal(t, int64(0), DataInt64(data, "missing"))

	empty := &UserState{}
	assert.Equal(t, int64(0), empty.GetInt64("anything"))
	assert.False(t, empty.Has("anything"))
}
