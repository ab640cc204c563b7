package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	a := New("sess")
	b := New("sess")

	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "sess-"))
	_, err := uuid.Parse(strings.TrimPrefix(a, "sess-"))
	assert.NoError(t, err)
}
