// Package session tracks bounded conversation history per session. History
// is a sliding window of complete exchanges: when the cap is exceeded the
// oldest exchange is dropped whole, never split.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one completed user/assistant turn pair.
type Exchange struct {
	UserMessage      string
	AssistantMessage string
}

// Manager stores per-session history with a fixed exchange cap.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string][]Exchange
	maxHistory int
}

// NewManager creates a session manager keeping at most maxHistory exchanges
// per session.
func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &Manager{
		sessions:   make(map[string][]Exchange),
		maxHistory: maxHistory,
	}
}

// CreateSession starts a new empty session and returns its ID.
func (m *Manager) CreateSession() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()
	return id
}

// AddExchange appends a completed exchange, evicting the oldest when the
// window is full. Unknown session IDs are created implicitly.
func (m *Manager) AddExchange(sessionID, userMessage, assistantMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[sessionID], Exchange{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[sessionID] = history
}

// History renders the session's exchanges as alternating User/Assistant
// lines for inclusion in a system prompt. Returns "" for empty or unknown
// sessions.
func (m *Manager) History(sessionID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[sessionID]
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history)*2)
	for _, ex := range history {
		lines = append(lines, fmt.Sprintf("User: %s", ex.UserMessage))
		lines = append(lines, fmt.Sprintf("Assistant: %s", ex.AssistantMessage))
	}
	return strings.Join(lines, "\n")
}

// Clear empties a session's history. The session ID stays valid.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = nil
}

// Count returns the number of stored exchanges for a session.
func (m *Manager) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}
