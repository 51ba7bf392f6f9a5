package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabuslabs/syllabus/config"
	"github.com/syllabuslabs/syllabus/llms"
	"github.com/syllabuslabs/syllabus/models"
	"github.com/syllabuslabs/syllabus/store"
	"github.com/syllabuslabs/syllabus/vector"
)

// scriptedLLM replays canned responses and records every call.
type scriptedLLM struct {
	responses []*llms.Response
	err       error

	calls     [][]llms.Message
	toolLists [][]llms.ToolDefinition
}

func (s *scriptedLLM) Generate(_ context.Context, messages []llms.Message, tools []llms.ToolDefinition) (*llms.Response, error) {
	s.calls = append(s.calls, messages)
	s.toolLists = append(s.toolLists, tools)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.calls) > len(s.responses) {
		return nil, fmt.Errorf("unexpected generation call %d", len(s.calls))
	}
	return s.responses[len(s.calls)-1], nil
}

func (s *scriptedLLM) ModelName() string { return "scripted" }
func (s *scriptedLLM) Close() error      { return nil }

// hashEmbedder is the deterministic bag-of-words embedder shared with the
// store tests.
type hashEmbedder struct {
	dim int
}

func (e hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?:;\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%uint32(e.dim)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		norm = 1
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e hashEmbedder) Dimension() int { return e.dim }
func (e hashEmbedder) Name() string   { return "hash" }

func testConfig() *config.Config {
	return &config.Config{
		Search:  config.SearchConfig{MaxResults: 5, ChunkSize: 200, ChunkOverlap: 25, DocsFolder: "./docs"},
		Session: config.SessionConfig{MaxHistory: 2},
	}
}

func newTestSystem(t *testing.T, llm llms.Provider) *System {
	t.Helper()
	provider, err := vector.NewChromemProvider(vector.ChromemConfig{})
	require.NoError(t, err)
	st := store.New(provider, hashEmbedder{dim: 64}, 5)

	system, err := New(testConfig(), st, llm)
	require.NoError(t, err)
	return system
}

func lessonPtr(n int) *int { return &n }

func seedSystem(t *testing.T, s *System) {
	t.Helper()
	ctx := context.Background()

	course := models.Course{
		Title:      "Introduction to MCP",
		CourseLink: "https://example.com/mcp",
		Lessons: []models.Lesson{
			{LessonNumber: 1, Title: "Getting Started", LessonLink: "https://example.com/mcp/1"},
		},
	}
	require.NoError(t, s.store.AddCourseMetadata(ctx, course))
	require.NoError(t, s.store.AddCourseChunks(ctx, []models.CourseChunk{
		{Content: "MCP servers expose tools over a protocol handshake", CourseTitle: course.Title, LessonNumber: lessonPtr(1), ChunkIndex: 0},
	}))
}

func TestQueryDirectAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.Response{{Text: "Paris."}}}
	s := newTestSystem(t, llm)

	answer, sources, err := s.Query(context.Background(), "capital of France?", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "Paris.", answer)
	assert.Empty(t, sources)

	// One call only, with both tools offered.
	require.Len(t, llm.calls, 1)
	require.Len(t, llm.toolLists[0], 2)
	assert.Equal(t, "search_course_content", llm.toolLists[0][0].Name)
	assert.Equal(t, "get_course_outline", llm.toolLists[0][1].Name)

	// The user message carries the query wrapper.
	messages := llm.calls[0]
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, strings.ToLower(messages[0].Content), "search tool")
	assert.Equal(t, "Answer this question about course materials: capital of France?", messages[1].Content)
}

func TestQueryToolFlow(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{{
			ID:   "t1",
			Name: "search_course_content",
			Arguments: map[string]any{
				"query": "servers protocol handshake",
			},
		}}},
		{Text: "Servers expose tools during the handshake."},
	}}
	s := newTestSystem(t, llm)
	seedSystem(t, s)

	answer, sources, err := s.Query(context.Background(), "how do MCP servers work?", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "Servers expose tools during the handshake.", answer)
	require.NotEmpty(t, sources)
	assert.Equal(t, "https://example.com/mcp/1", sources[0].URL)

	// Two calls total; the closing call withholds tools.
	require.Len(t, llm.calls, 2)
	assert.Empty(t, llm.toolLists[1])

	// The closing call sees the tool request and its result.
	messages := llm.calls[1]
	require.Len(t, messages, 4)
	assert.Equal(t, "assistant", messages[2].Role)
	require.Len(t, messages[2].ToolCalls, 1)
	assert.Equal(t, "tool", messages[3].Role)
	assert.Equal(t, "t1", messages[3].ToolCallID)
	assert.Contains(t, messages[3].Content, "[Introduction to MCP - Lesson 1]")
}

func TestQueryUnknownToolStillCompletes(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.Response{
		{ToolCalls: []llms.ToolCall{{ID: "t1", Name: "bogus_tool", Arguments: map[string]any{}}}},
		{Text: "I could not look that up."},
	}}
	s := newTestSystem(t, llm)

	answer, sources, err := s.Query(context.Background(), "q", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "I could not look that up.", answer)
	assert.Empty(t, sources)

	messages := llm.calls[1]
	assert.Equal(t, "Tool 'bogus_tool' not found", messages[3].Content)
}

func TestQueryGenerationError(t *testing.T) {
	llm := &scriptedLLM{err: fmt.Errorf("rate limited")}
	s := newTestSystem(t, llm)

	_, _, err := s.Query(context.Background(), "q", "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	// Failed turns are not recorded in history.
	assert.Equal(t, 0, s.sessions.Count("sess-1"))
}

func TestQueryCarriesHistory(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.Response{
		{Text: "First answer."},
		{Text: "Second answer."},
	}}
	s := newTestSystem(t, llm)

	_, _, err := s.Query(context.Background(), "first question", "sess-1")
	require.NoError(t, err)

	_, _, err = s.Query(context.Background(), "second question", "sess-1")
	require.NoError(t, err)

	system := llm.calls[1][0]
	assert.Contains(t, system.Content, "Previous conversation:")
	assert.Contains(t, system.Content, "User: first question")
	assert.Contains(t, system.Content, "Assistant: First answer.")
}

func TestResetSession(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.Response{{Text: "a"}, {Text: "b"}}}
	s := newTestSystem(t, llm)

	_, _, err := s.Query(context.Background(), "q", "sess-1")
	require.NoError(t, err)
	s.ResetSession("sess-1")

	_, _, err = s.Query(context.Background(), "q2", "sess-1")
	require.NoError(t, err)

	system := llm.calls[1][0]
	assert.NotContains(t, system.Content, "Previous conversation:")
}

func TestAddCourseFolder(t *testing.T) {
	s := newTestSystem(t, &scriptedLLM{})

	dir := t.TempDir()
	transcript := `Course Title: Test Course
Course Link: https://example.com/test
Course Instructor: Ada

Lesson 1: Basics
This lesson covers the basics of the subject in detail.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course.txt"), []byte(transcript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.csv"), []byte("a,b"), 0o644))

	courses, chunks, err := s.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Greater(t, chunks, 0)

	analytics := s.Analytics()
	assert.Equal(t, 1, analytics.TotalCourses)
	assert.Equal(t, []string{"Test Course"}, analytics.CourseTitles)

	// Re-indexing skips courses already in the catalog.
	courses, chunks, err = s.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, courses)
	assert.Equal(t, 0, chunks)

	// Clearing first re-ingests everything.
	courses, _, err = s.AddCourseFolder(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
}

func TestAddCourseFolderMissingDir(t *testing.T) {
	s := newTestSystem(t, &scriptedLLM{})

	_, _, err := s.AddCourseFolder(context.Background(), "/nonexistent/folder", false)
	require.Error(t, err)
}
