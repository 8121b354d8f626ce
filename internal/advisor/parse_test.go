package advisor

import (
	"testing"

	"trimtrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n{\"a\":1}```  ", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stripCodeFences(tc.in), tc.in)
	}
}

func TestDecodeStrict(t *testing.T) {
	type shape struct {
		A int `json:"a"`
		B int `json:"b"`
	}

	var ok shape
	require.NoError(t, decodeStrict(`{"a": 1, "b": 2, "extra": true}`, []string{"a", "b"}, &ok))
	assert.Equal(t, shape{A: 1, B: 2}, ok)

	var missing shape
	err := decodeStrict(`{"a": 1}`, []string{"a", "b"}, &missing)
	require.ErrorIs(t, err, domain.ErrMalformedAIResponse)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, shape{}, missing)

	err = decodeStrict(`{"a": 1, "b": null}`, []string{"a", "b"}, &missing)
	require.ErrorIs(t, err, domain.ErrMalformedAIResponse)
}

func TestDecodeStrictTypeMismatchKeepsDst(t *testing.T) {
	type meal struct {
		Total float64  `json:"total"`
		Foods []string `json:"foods"`
	}

	prior := meal{Total: 1, Foods: []string{"keep"}}
	dst := prior
	err := decodeStrict(`{"total": 450, "foods": "x"}`, []string{"total", "foods"}, &dst)
	require.ErrorIs(t, err, domain.ErrMalformedAIResponse)
	assert.Equal(t, prior, dst)

	require.Error(t, decodeStrict(`{"total": 1, "foods": []}`, nil, dst))
}
