package vector

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointUUID(t *testing.T) {
	a := pointUUID("Introduction to MCP_0")
	b := pointUUID("Introduction to MCP_0")
	c := pointUUID("Introduction to MCP_1")

	// Stable for the same logical ID, distinct across IDs.
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestBuildQdrantFilterConditions(t *testing.T) {
	f := buildQdrantFilter(map[string]any{
		"course_title":  "Introduction to MCP",
		"lesson_number": 2,
	})

	require.NotNil(t, f)
	assert.Len(t, f.Must, 2)
}
