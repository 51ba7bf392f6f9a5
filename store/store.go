// Package store implements course storage and semantic retrieval on top of a
// vector provider. Two collections are maintained: course_catalog holds one
// entry per course for fuzzy name resolution, course_content holds the
// chunked transcript material.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/syllabuslabs/syllabus/embedder"
	"github.com/syllabuslabs/syllabus/models"
	"github.com/syllabuslabs/syllabus/vector"
)

const (
	// CatalogCollection stores one document per course title.
	CatalogCollection = "course_catalog"

	// ContentCollection stores chunked course material.
	ContentCollection = "course_content"
)

// SearchResults carries documents with their metadata and scores, or an
// error message meant to be shown to the caller verbatim. Backing-store
// faults and domain-level misses (unknown course name) both surface here
// rather than as Go errors, so the generation loop can relay them as tool
// output.
type SearchResults struct {
	Documents []string
	Metadata  []map[string]any
	Scores    []float32
	Error     string

	// Course is the resolved catalog title the filter applied, when a
	// course name was given.
	Course string
}

// IsEmpty reports whether the search produced no documents.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// ErrorResults creates a SearchResults carrying only an error message.
func ErrorResults(msg string) SearchResults {
	return SearchResults{Error: msg}
}

// SearchOptions narrows a content search.
type SearchOptions struct {
	// CourseName is a partial or fuzzy course title. It is resolved against
	// the catalog before filtering.
	CourseName string

	// LessonNumber restricts results to a single lesson when set.
	LessonNumber *int

	// Limit overrides the store's default result cap when positive.
	Limit int
}

// CourseStore coordinates the vector provider and embedder for course
// ingestion and retrieval. It also keeps an in-memory catalog of full course
// records for link lookups and analytics, since vector backends have no
// cheap list-all operation.
type CourseStore struct {
	provider   vector.Provider
	embedder   embedder.Embedder
	maxResults int

	mu      sync.RWMutex
	catalog map[string]models.Course
}

// New creates a CourseStore. maxResults caps content searches when the
// caller does not specify a limit.
func New(provider vector.Provider, emb embedder.Embedder, maxResults int) *CourseStore {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &CourseStore{
		provider:   provider,
		embedder:   emb,
		maxResults: maxResults,
		catalog:    make(map[string]models.Course),
	}
}

// Search runs the full retrieval flow: resolve the course name if given,
// build the metadata filter, and query course content. Misses and backend
// faults come back inside the SearchResults, never as a Go error.
func (s *CourseStore) Search(ctx context.Context, query string, opts SearchOptions) SearchResults {
	var courseTitle string
	if opts.CourseName != "" {
		resolved, err := s.ResolveCourseName(ctx, opts.CourseName)
		if err != nil {
			return ErrorResults("Search error: " + err.Error())
		}
		if resolved == "" {
			return ErrorResults(fmt.Sprintf("No course found matching '%s'", opts.CourseName))
		}
		courseTitle = resolved
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	filter := BuildFilter(courseTitle, opts.LessonNumber)

	results, err := s.searchContent(ctx, query, limit, filter)
	if err != nil {
		return ErrorResults("Search error: " + err.Error())
	}
	results.Course = courseTitle
	return results
}

// searchContent embeds the query and searches the content collection.
func (s *CourseStore) searchContent(ctx context.Context, query string, limit int, filter map[string]any) (SearchResults, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return SearchResults{}, fmt.Errorf("failed to embed query: %w", err)
	}

	var hits []vector.Result
	if filter != nil {
		hits, err = s.provider.SearchWithFilter(ctx, ContentCollection, queryVec, limit, filter)
	} else {
		hits, err = s.provider.Search(ctx, ContentCollection, queryVec, limit)
	}
	if err != nil {
		return SearchResults{}, err
	}

	out := SearchResults{
		Documents: make([]string, 0, len(hits)),
		Metadata:  make([]map[string]any, 0, len(hits)),
		Scores:    make([]float32, 0, len(hits)),
	}
	for _, h := range hits {
		out.Documents = append(out.Documents, h.Content)
		out.Metadata = append(out.Metadata, h.Metadata)
		out.Scores = append(out.Scores, h.Score)
	}
	return out, nil
}

// ResolveCourseName matches a partial course name against the catalog by
// vector similarity and returns the best-matching exact title. An empty
// string means no course matched (empty catalog included).
func (s *CourseStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	queryVec, err := s.embedder.Embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to embed course name: %w", err)
	}

	hits, err := s.provider.Search(ctx, CatalogCollection, queryVec, 1)
	if err != nil {
		return "", fmt.Errorf("course resolution failed: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	if title, ok := hits[0].Metadata["title"].(string); ok && title != "" {
		return title, nil
	}
	return hits[0].ID, nil
}

// BuildFilter constructs the metadata filter for a content search.
// Returns nil when neither constraint is present. Both keys together form a
// conjunction.
func BuildFilter(courseTitle string, lessonNumber *int) map[string]any {
	if courseTitle == "" && lessonNumber == nil {
		return nil
	}
	filter := make(map[string]any, 2)
	if courseTitle != "" {
		filter["course_title"] = courseTitle
	}
	if lessonNumber != nil {
		filter["lesson_number"] = *lessonNumber
	}
	return filter
}

// AddCourseMetadata stores a course record in the catalog collection and the
// in-memory catalog. The document ID is the course title; re-adding a course
// overwrites the previous record.
func (s *CourseStore) AddCourseMetadata(ctx context.Context, course models.Course) error {
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}

	vec, err := s.embedder.Embed(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("failed to embed course title: %w", err)
	}

	lessonsJSON, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}

	metadata := map[string]any{
		"title":        course.Title,
		"instructor":   course.Instructor,
		"course_link":  course.CourseLink,
		"lessons_json": string(lessonsJSON),
		"lesson_count": len(course.Lessons),
	}

	if err := s.provider.Upsert(ctx, CatalogCollection, course.Title, vec, metadata); err != nil {
		return fmt.Errorf("failed to store course metadata: %w", err)
	}

	s.mu.Lock()
	s.catalog[course.Title] = course
	s.mu.Unlock()

	return nil
}

// AddCourseChunks stores content chunks in the content collection. Chunk IDs
// are "{course title}_{chunk index}" so re-ingesting a course overwrites its
// previous chunks. An empty slice is a no-op.
func (s *CourseStore) AddCourseChunks(ctx context.Context, chunks []models.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	for i, c := range chunks {
		metadata := map[string]any{
			"content":      c.Content,
			"course_title": c.CourseTitle,
			"chunk_index":  c.ChunkIndex,
		}
		if c.LessonNumber != nil {
			metadata["lesson_number"] = *c.LessonNumber
		}

		id := fmt.Sprintf("%s_%d", c.CourseTitle, c.ChunkIndex)
		if err := s.provider.Upsert(ctx, ContentCollection, id, vecs[i], metadata); err != nil {
			return fmt.Errorf("failed to store chunk %s: %w", id, err)
		}
	}

	return nil
}

// CourseCount returns the number of courses in the catalog.
func (s *CourseStore) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog)
}

// ExistingCourseTitles returns all catalog titles, sorted.
func (s *CourseStore) ExistingCourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.catalog))
	for title := range s.catalog {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// CourseLink returns the link for a course, or "" when unknown.
func (s *CourseStore) CourseLink(title string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog[title].CourseLink
}

// LessonLink returns the link for a specific lesson of a course, or "" when
// either is unknown.
func (s *CourseStore) LessonLink(title string, lessonNumber int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.catalog[title]
	if !ok {
		return ""
	}
	lesson, ok := course.Lesson(lessonNumber)
	if !ok {
		return ""
	}
	return lesson.LessonLink
}

// Course returns the full catalog record for a title.
func (s *CourseStore) Course(title string) (models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.catalog[title]
	return course, ok
}

// AllCoursesMetadata returns every catalog record, sorted by title.
func (s *CourseStore) AllCoursesMetadata() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make([]models.Course, 0, len(s.catalog))
	for _, c := range s.catalog {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses
}

// ClearAll drops both collections and the in-memory catalog.
func (s *CourseStore) ClearAll(ctx context.Context) error {
	for _, collection := range []string{CatalogCollection, ContentCollection} {
		count, err := s.provider.Count(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to inspect collection %s: %w", collection, err)
		}
		if count == 0 {
			continue
		}
		if err := s.provider.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}
	}

	s.mu.Lock()
	s.catalog = make(map[string]models.Course)
	s.mu.Unlock()

	return nil
}
