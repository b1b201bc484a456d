package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "small number", input: "42"},
		{name: "negative number", input: "-7"},
		{name: "max int64", input: "9223372036854775807"},
		{name: "beyond int64", input: "18446744073709551615"},
		{name: "beyond float64 precision", input: "9007199254740993"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BigInt
			require.NoError(t, json.Unmarshal([]byte(tt.input), &b))

			// Число должно пережить round-trip без потери цифр
			data, err := json.Marshal(b)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(data))
		})
	}
}

func TestBigIntUnmarshalQuoted(t *testing.T) {
	var b BigInt
	require.NoError(t, json.Unmarshal([]byte(`"18446744073709551615"`), &b))
	assert.Equal(t, "18446744073709551615", b.String())
}

func TestBigIntUnmarshalInvalid(t *testing.T) {
	var b BigInt
	assert.Error(t, json.Unmarshal([]byte(`"not a number"`), &b))
}

func TestBigIntInStruct(t *testing.T) {
	type record struct {
		ID *BigInt `json:"id"`
	}

	var rec record
	require.NoError(t, json.Unmarshal([]byte(`{"id": 9223372036854775807}`), &rec))
	require.NotNil(t, rec.ID)
	assert.Equal(t, NewBigInt(9223372036854775807).String(), rec.ID.String())
}

func TestDecodeBase64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "standard padded", input: "aGVsbG8=", want: []byte("hello")},
		{name: "standard unpadded", input: "aGVsbG8", want: []byte("hello")},
		// 0xfb 0xef раскрывает разницу алфавитов: '+' и '/' против '-' и '_'
		{name: "standard alphabet", input: "++//", want: []byte{0xfb, 0xef, 0xff}},
		{name: "url-safe alphabet", input: "--__", want: []byte{0xfb, 0xef, 0xff}},
		{name: "empty string", input: "", want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeBase64(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded)
		})
	}
}

func TestDecodeBase64Invalid(t *testing.T) {
	_, err := DecodeBase64("not base64 at all!!!")
	assert.Error(t, err)
}

func TestURLBytesRoundTrip(t *testing.T) {
	original := URLBytes{0xfb, 0xef, 0xff}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `"--__"`, string(data))

	var decoded URLBytes
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestURLBytesAcceptsStandardAlphabet(t *testing.T) {
	var decoded URLBytes
	require.NoError(t, json.Unmarshal([]byte(`"++//"`), &decoded))
	assert.Equal(t, URLBytes{0xfb, 0xef, 0xff}, decoded)
}
