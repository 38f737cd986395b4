package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string         `json:"name"`
	Value map[string]any `json:"value"`
}

func TestFlexList(t *testing.T) {
	var one FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(`{"name": "a", "value": {"n": 9007199254740993}}`), &one))
	require.Len(t, one, 1)
	assert.Equal(t, "a", one[0].Name)
	assert.Equal(t, json.Number("9007199254740993"), one[0].Value["n"])

	var many FlexList[item]
	require.NoError(t, json.Unmarshal([]byte(` [{"name": "a"}, {"name": "b"}] `), &many))
	assert.Len(t, many.Slice(), 2)

	var none FlexList[item]
	require.NoError(t, none.UnmarshalJSON([]byte("null")))
	assert.Empty(t, none)

	assert.Error(t, none.UnmarshalJSON([]byte(`{"name": 1}`)))
}

func TestFlexUint64(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		err  bool
	}{
		{`7`, 7, false},
		{`"12"`, 12, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`-1`, 0, true},
		{`"v2"`, 0, true},
		{`1.5`, 0, true},
	}

	for _, tt := range tests {
		var f FlexUint64
		err := f.UnmarshalJSON([]byte(tt.in))
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, f.Uint64(), tt.in)
	}

	out, err := json.Marshal(FlexUint64(42))
	require.NoError(t, err)
	assert.Equal(t, "42", string(out))

	var nilFlex *FlexUint64
	assert.Nil(t, nilFlex.Ptr())
	v := FlexUint64(3)
	assert.Equal(t, uint64(3), *v.Ptr())
}
