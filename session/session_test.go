package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	m := NewManager(2)

	id1 := m.CreateSession()
	id2 := m.CreateSession()

	require.NotEmpty(t, id1)
	require.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2)
	assert.Empty(t, m.History(id1))
}

func TestHistoryFormat(t *testing.T) {
	m := NewManager(2)
	id := m.CreateSession()

	m.AddExchange(id, "What is MCP?", "A protocol for tool use.")

	want := "User: What is MCP?\nAssistant: A protocol for tool use."
	assert.Equal(t, want, m.History(id))
}

func TestWindowEvictsOldestWhole(t *testing.T) {
	m := NewManager(2)
	id := m.CreateSession()

	for i := 1; i <= 3; i++ {
		m.AddExchange(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history := m.History(id)
	assert.NotContains(t, history, "q1")
	assert.NotContains(t, history, "a1")
	assert.Contains(t, history, "User: q2")
	assert.Contains(t, history, "User: q3")
	assert.Equal(t, 2, m.Count(id))
}

func TestUnknownSessionHistoryIsEmpty(t *testing.T) {
	m := NewManager(2)
	assert.Empty(t, m.History("no-such-session"))
	assert.Equal(t, 0, m.Count("no-such-session"))
}

func TestImplicitSessionCreation(t *testing.T) {
	m := NewManager(2)
	m.AddExchange("adopted", "q", "a")
	assert.Equal(t, 1, m.Count("adopted"))
}

func TestClearKeepsSessionValid(t *testing.T) {
	m := NewManager(2)
	id := m.CreateSession()
	m.AddExchange(id, "q", "a")

	m.Clear(id)

	assert.Empty(t, m.History(id))
	m.AddExchange(id, "q2", "a2")
	assert.Equal(t, 1, m.Count(id))
}
