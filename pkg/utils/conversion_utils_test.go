package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64ToStr(t *testing.T) {
	assert.Equal(t, "42", Int64ToStr(42))
	assert.Equal(t, "-7", Int64ToStr(-7))
}

func TestStrToInt64(t *testing.T) {
	n, err := StrToInt64("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = StrToInt64("forty-two")
	assert.Error(t, err)
}
