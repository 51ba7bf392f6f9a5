package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/syllabuslabs/syllabus/models"
	"github.com/syllabuslabs/syllabus/store"
)

// CourseSearchTool searches course content with optional course and lesson
// filtering. It is the primary retrieval tool offered to the LLM.
type CourseSearchTool struct {
	store *store.CourseStore
}

// NewCourseSearchTool creates the course content search tool.
func NewCourseSearchTool(s *store.CourseStore) *CourseSearchTool {
	return &CourseSearchTool{store: s}
}

// Info returns the tool description exposed to the LLM.
func (t *CourseSearchTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: []ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "What to search for in the course content",
				Required:    true,
			},
			{
				Name:        "course_name",
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			{
				Name:        "lesson_number",
				Type:        "integer",
				Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		},
	}
}

// Execute runs the search and formats results for the model.
func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	query, _ := args["query"].(string)
	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	results := t.store.Search(ctx, query, store.SearchOptions{
		CourseName:   courseName,
		LessonNumber: lessonNumber,
	})

	if results.Error != "" {
		return ToolResult{Content: results.Error}
	}

	if results.IsEmpty() {
		msg := "No relevant content found"
		if courseName != "" {
			// Report the title the filter actually applied, not the raw input.
			title := results.Course
			if title == "" {
				title = courseName
			}
			msg += fmt.Sprintf(" in course '%s'", title)
		}
		if lessonNumber != nil {
			msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
		}
		return ToolResult{Content: msg}
	}

	return t.formatResults(results)
}

// formatResults renders one block per match with a course/lesson header and
// collects one source per match.
func (t *CourseSearchTool) formatResults(results store.SearchResults) ToolResult {
	blocks := make([]string, 0, len(results.Documents))
	sources := make([]models.Source, 0, len(results.Documents))

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		courseTitle, _ := meta["course_title"].(string)
		if courseTitle == "" {
			courseTitle = "unknown"
		}
		lessonNumber := metadataLesson(meta)

		header := "[" + courseTitle
		if lessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *lessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+doc)

		sourceText := courseTitle
		url := ""
		if lessonNumber != nil {
			sourceText += fmt.Sprintf(" - Lesson %d", *lessonNumber)
			url = t.store.LessonLink(courseTitle, *lessonNumber)
		}
		if url == "" {
			url = t.store.CourseLink(courseTitle)
		}
		sources = append(sources, models.Source{Text: sourceText, URL: url})
	}

	return ToolResult{
		Content: strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

// intArg extracts an optional integer argument. JSON decoding yields
// float64, some models send strings.
func intArg(args map[string]any, key string) *int {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

// metadataLesson extracts a lesson number from chunk metadata. Vector
// backends may have stringified the value.
func metadataLesson(meta map[string]any) *int {
	v, ok := meta["lesson_number"]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

var _ Tool = (*CourseSearchTool)(nil)
