package jsoncodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&sample{ID: "x", Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","count":2}`, string(data))

	var got sample
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, sample{ID: "x", Count: 2}, got)
}

func TestCodec_EmptyBody(t *testing.T) {
	var got sample
	require.NoError(t, Codec{}.Unmarshal(nil, &got))
	assert.Equal(t, sample{}, got)
}

func TestCodec_RejectsUnknownFields(t *testing.T) {
	var got sample
	err := Codec{}.Unmarshal([]byte(`{"id":"x","bogus":true}`), &got)
	assert.ErrorContains(t, err, "bogus")
}
