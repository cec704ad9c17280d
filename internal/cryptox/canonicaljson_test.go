package cryptox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCanonicalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "empty object", in: map[string]any{}, want: `{}`},
		{name: "sorted keys", in: map[string]any{"two": "Two", "one": 1}, want: `{"one":1,"two":"Two"}`},
		{
			name: "nested",
			in: map[string]any{
				"auth": map[string]any{"success": true, "mxid": "@john.doe:example.com", "profile": map[string]any{"display_name": "John Doe", "three_pids": []any{map[string]any{"medium": "email", "address": "john.doe@example.org"}}}},
			},
			want: `{"auth":{"mxid":"@john.doe:example.com","profile":{"display_name":"John Doe","three_pids":[{"address":"john.doe@example.org","medium":"email"}]},"success":true}}`,
		},
		{name: "raw utf8", in: map[string]any{"a": "日本語"}, want: `{"a":"日本語"}`},
		{name: "unicode keys sort by code point", in: map[string]any{"日": 1, "本": 2}, want: `{"日":1,"本":2}`},
		{name: "no html escaping", in: map[string]any{"a": "<>&"}, want: `{"a":"<>&"}`},
		{name: "control characters", in: map[string]any{"a": "\u0000\u001f\n\t\"\\"}, want: `{"a":"\u0000\u001f\n\t\"\\"}`},
		{name: "null", in: map[string]any{"a": nil}, want: `{"a":null}`},
		{name: "json number", in: map[string]any{"a": json.Number("-10")}, want: `{"a":-10}`},
		{name: "integral float", in: map[string]any{"a": 3.0}, want: `{"a":3}`},
		{name: "struct round trip", in: struct {
			B int    `json:"b"`
			A string `json:"a"`
		}{B: 2, A: "x"}, want: `{"a":"x","b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCanonicalJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestEncodeCanonicalJSON_RejectsNonIntegers(t *testing.T) {
	for _, v := range []any{1.5, json.Number("1e3"), json.Number("0.1"), int64(1 << 53), -(int64(1) << 53)} {
		_, err := EncodeCanonicalJSON(map[string]any{"a": v})
		assert.ErrorIs(t, err, ErrNonCanonical, "%v", v)
	}
}

func TestDecodeJSON_KeepsIntegersExact(t *testing.T) {
	m, err := DecodeJSON([]byte(`{"ts": 9007199254740991, "b": [1, "x"]}`))
	require.NoError(t, err)

	got, err := EncodeCanonicalJSON(m)
	require.NoError(t, err)
	assert.Equal(t, `{"b":[1,"x"],"ts":9007199254740991}`, string(got))
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "", EncodeBase64(nil))
	assert.Equal(t, "Zg", EncodeBase64([]byte("f")))
	assert.Equal(t, "Zm8", EncodeBase64([]byte("fo")))
	assert.Equal(t, "Zm9v", EncodeBase64([]byte("foo")))

	for _, s := range []string{"Zm8", "Zm8=", "-_8", "+/8"} {
		_, err := DecodeBase64(s)
		assert.NoError(t, err, s)
	}
	_, err := DecodeBase64("!!!")
	assert.Error(t, err)
}
