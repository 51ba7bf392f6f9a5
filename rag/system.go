// Package rag wires retrieval, tools, sessions and the LLM into the
// question answering system. Generation is a strict two-phase loop: one
// call with tools offered, then, if tools were used, one closing call with
// tool results and no tools.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syllabuslabs/syllabus/config"
	"github.com/syllabuslabs/syllabus/docs"
	"github.com/syllabuslabs/syllabus/embedder"
	"github.com/syllabuslabs/syllabus/llms"
	"github.com/syllabuslabs/syllabus/models"
	"github.com/syllabuslabs/syllabus/session"
	"github.com/syllabuslabs/syllabus/store"
	"github.com/syllabuslabs/syllabus/tools"
	"github.com/syllabuslabs/syllabus/vector"
)

// SystemPrompt instructs the model when to search and how to answer.
const SystemPrompt = `You are an AI assistant specialized in course materials and educational content, with a search tool for course information.

Tool usage:
- Use the search tool only for questions about specific course content or detailed educational materials
- Use the outline tool for questions about course structure: lesson lists, lesson titles, course links
- One tool use per query maximum
- If a tool yields no results, state this clearly without offering alternatives

Response protocol:
- General knowledge questions: answer using existing knowledge without tools
- Course-specific questions: use the appropriate tool first, then answer
- Never mention the tools, the search process or your reasoning in the answer

Provide answers that are brief, concise and focused. Educational, clear and example-supported where helpful.`

// Analytics summarizes the indexed corpus.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System is the question answering engine.
type System struct {
	cfg       *config.Config
	store     *store.CourseStore
	llm       llms.Provider
	sessions  *session.Manager
	registry  *tools.Registry
	processor *docs.Processor
}

// New assembles a System from pre-built components. The search tool is
// registered first so it appears first in tool listings.
func New(cfg *config.Config, st *store.CourseStore, llm llms.Provider) (*System, error) {
	processor, err := docs.NewProcessor(cfg.Search.ChunkSize, cfg.Search.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create document processor: %w", err)
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearchTool(st)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewCourseOutlineTool(st)); err != nil {
		return nil, err
	}

	return &System{
		cfg:       cfg,
		store:     st,
		llm:       llm,
		sessions:  session.NewManager(cfg.Session.MaxHistory),
		registry:  registry,
		processor: processor,
	}, nil
}

// NewFromConfig builds all components from configuration.
func NewFromConfig(cfg *config.Config) (*System, error) {
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	provider, err := vector.New(cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector provider: %w", err)
	}

	llm, err := llms.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}

	st := store.New(provider, emb, cfg.Search.MaxResults)
	return New(cfg, st, llm)
}

// Sessions exposes the session manager.
func (s *System) Sessions() *session.Manager {
	return s.sessions
}

// Store exposes the course store.
func (s *System) Store() *store.CourseStore {
	return s.store
}

// Query answers one question. The model is called at most twice: once with
// tools offered, and once more with tool results if it chose to use any.
// Sources come from the tool results of this turn only; a direct answer has
// none.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []models.Source, error) {
	systemContent := SystemPrompt
	if history := s.sessions.History(sessionID); history != "" {
		systemContent += "\n\nPrevious conversation:\n" + history
	}

	messages := []llms.Message{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: "Answer this question about course materials: " + query},
	}

	response, err := s.llm.Generate(ctx, messages, s.registry.Definitions())
	if err != nil {
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}

	answer := response.Text
	var sources []models.Source

	if response.HasToolCalls() {
		messages = append(messages, llms.Message{
			Role:      "assistant",
			Content:   response.Text,
			ToolCalls: response.ToolCalls,
		})

		for _, call := range response.ToolCalls {
			result := s.registry.Execute(ctx, call.Name, call.Arguments)
			sources = append(sources, result.Sources...)
			messages = append(messages, llms.Message{
				Role:       "tool",
				Content:    result.Content,
				ToolCallID: call.ID,
			})
		}

		// Closing call: tools withheld so the model must answer.
		final, err := s.llm.Generate(ctx, messages, nil)
		if err != nil {
			return "", nil, fmt.Errorf("generation failed: %w", err)
		}
		answer = final.Text
	}

	s.sessions.AddExchange(sessionID, query, answer)
	return answer, sources, nil
}

// AddCourseDocument ingests a single transcript file. Returns the parsed
// course and its chunk count.
func (s *System) AddCourseDocument(ctx context.Context, path string) (models.Course, int, error) {
	course, chunks, err := s.processor.Process(path)
	if err != nil {
		return models.Course{}, 0, fmt.Errorf("failed to process %s: %w", path, err)
	}

	if err := s.store.AddCourseMetadata(ctx, course); err != nil {
		return models.Course{}, 0, err
	}
	if err := s.store.AddCourseChunks(ctx, chunks); err != nil {
		return models.Course{}, 0, err
	}

	return course, len(chunks), nil
}

// AddCourseFolder ingests every supported transcript in a folder. Courses
// already in the catalog are skipped unless clearExisting wipes the store
// first. Files are parsed in parallel; a bad file is logged and skipped,
// never fatal.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error) {
	if clearExisting {
		if err := s.store.ClearAll(ctx); err != nil {
			return 0, 0, fmt.Errorf("failed to clear existing data: %w", err)
		}
		slog.Info("Cleared existing course data")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read docs folder: %w", err)
	}

	existing := s.store.ExistingCourseTitles()

	type parsed struct {
		course models.Course
		chunks []models.CourseChunk
	}

	var mu sync.Mutex
	var results []parsed

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, entry := range entries {
		if entry.IsDir() || !docs.SupportedFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			course, chunks, err := s.processor.Process(path)
			if err != nil {
				slog.Warn("Skipping unreadable transcript", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			results = append(results, parsed{course: course, chunks: chunks})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	// Ingestion is sequential: embeddings dominate the cost and the
	// backends serialize writes anyway.
	coursesAdded, chunksAdded := 0, 0
	for _, r := range results {
		if slices.Contains(existing, r.course.Title) {
			continue
		}
		if err := s.store.AddCourseMetadata(ctx, r.course); err != nil {
			slog.Warn("Failed to store course metadata", "course", r.course.Title, "error", err)
			continue
		}
		if err := s.store.AddCourseChunks(ctx, r.chunks); err != nil {
			slog.Warn("Failed to store course chunks", "course", r.course.Title, "error", err)
			continue
		}
		coursesAdded++
		chunksAdded += len(r.chunks)
		slog.Info("Indexed course", "course", r.course.Title, "chunks", len(r.chunks))
	}

	return coursesAdded, chunksAdded, nil
}

// Analytics returns corpus statistics.
func (s *System) Analytics() Analytics {
	return Analytics{
		TotalCourses: s.store.CourseCount(),
		CourseTitles: s.store.ExistingCourseTitles(),
	}
}

// ResetSession clears a session's history, keeping the ID valid.
func (s *System) ResetSession(sessionID string) {
	s.sessions.Clear(sessionID)
}
