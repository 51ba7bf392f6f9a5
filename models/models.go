// Package models defines the domain types shared across the syllabus engine:
// courses, lessons, indexed content chunks and answer sources.
package models

// Lesson is a single lesson within a course.
type Lesson struct {
	LessonNumber int    `json:"lesson_number" yaml:"lesson_number"`
	Title        string `json:"title" yaml:"title"`
	LessonLink   string `json:"lesson_link,omitempty" yaml:"lesson_link,omitempty"`
}

// Course is one course document. The title is the unique identifier; a course
// is immutable once indexed.
type Course struct {
	Title      string   `json:"title" yaml:"title"`
	CourseLink string   `json:"course_link,omitempty" yaml:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty" yaml:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson returns the lesson with the given number, if present.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.LessonNumber == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// CourseChunk is the unit of content indexed for similarity search.
// CourseTitle is a back-reference to the owning course, LessonNumber is nil
// for chunks that precede the first lesson.
type CourseChunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// Source identifies where a retrieved chunk came from. It is surfaced to the
// end user alongside an answer.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}
