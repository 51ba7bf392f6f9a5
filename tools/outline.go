package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/syllabuslabs/syllabus/models"
	"github.com/syllabuslabs/syllabus/store"
)

// CourseOutlineTool returns the full lesson list of a course. It answers
// structural questions ("what does lesson 5 cover?", "how many lessons?")
// without a content search.
type CourseOutlineTool struct {
	store *store.CourseStore
}

// NewCourseOutlineTool creates the course outline tool.
func NewCourseOutlineTool(s *store.CourseStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: s}
}

// Info returns the tool description exposed to the LLM.
func (t *CourseOutlineTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course: title, link and all lesson titles",
		Parameters: []ToolParameter{
			{
				Name:        "course_name",
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				Required:    true,
			},
		},
	}
}

// Execute resolves the course and formats its outline.
func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	courseName, _ := args["course_name"].(string)

	resolved, err := t.store.ResolveCourseName(ctx, courseName)
	if err != nil {
		return ToolResult{Content: "Search error: " + err.Error()}
	}
	if resolved == "" {
		return ToolResult{Content: fmt.Sprintf("No course found matching '%s'", courseName)}
	}

	course, ok := t.store.Course(resolved)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("No course found matching '%s'", courseName)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.CourseLink)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "  %d. %s\n", lesson.LessonNumber, lesson.Title)
	}

	return ToolResult{
		Content: strings.TrimRight(b.String(), "\n"),
		Sources: []models.Source{{Text: course.Title, URL: course.CourseLink}},
	}
}

var _ Tool = (*CourseOutlineTool)(nil)
