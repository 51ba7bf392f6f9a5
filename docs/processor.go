// Package docs ingests course transcripts: parsing the transcript format,
// extracting text from supported file types, chunking content into
// retrieval units and watching the docs folder for changes.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/syllabuslabs/syllabus/models"
)

// Processor parses course transcripts into a course record and content
// chunks ready for ingestion.
//
// The transcript format is line-oriented: a metadata header (Course Title,
// Course Link, Course Instructor), then lesson sections introduced by
// "Lesson N: Title" markers, each optionally followed by a "Lesson Link:"
// line. Content before the first lesson marker belongs to the course as a
// whole.
type Processor struct {
	chunker *Chunker
}

// NewProcessor creates a processor with the given chunking budgets.
func NewProcessor(chunkSize, overlap int) (*Processor, error) {
	chunker, err := NewChunker(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return &Processor{chunker: chunker}, nil
}

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// lessonSection is a parsed transcript segment. lessonNumber is nil for
// content preceding the first lesson marker.
type lessonSection struct {
	lessonNumber *int
	content      string
}

// Process reads and parses one transcript file, returning the course record
// and its content chunks. Chunks carry a course/lesson context prefix so
// each one is self-describing in retrieval results.
func (p *Processor) Process(path string) (models.Course, []models.CourseChunk, error) {
	text, err := readDocument(path)
	if err != nil {
		return models.Course{}, nil, err
	}

	course, sections := parseTranscript(text)
	if course.Title == "" {
		// Untitled transcripts fall back to the file name.
		base := filepath.Base(path)
		course.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var chunks []models.CourseChunk
	for _, section := range sections {
		for _, chunk := range p.chunker.Chunk(section.content) {
			prefix := fmt.Sprintf("Course %s content: ", course.Title)
			if section.lessonNumber != nil {
				prefix = fmt.Sprintf("Course %s Lesson %d content: ", course.Title, *section.lessonNumber)
			}
			chunks = append(chunks, models.CourseChunk{
				Content:      prefix + chunk,
				CourseTitle:  course.Title,
				LessonNumber: section.lessonNumber,
				ChunkIndex:   len(chunks),
			})
		}
	}

	return course, chunks, nil
}

// parseTranscript splits the transcript into course metadata, lesson list
// and content sections.
func parseTranscript(text string) (models.Course, []lessonSection) {
	var course models.Course
	var sections []lessonSection

	var current *lessonSection
	var buf []string

	flush := func() {
		if current != nil {
			content := strings.TrimSpace(strings.Join(buf, "\n"))
			if content != "" {
				current.content = content
				sections = append(sections, *current)
			}
		}
		buf = nil
	}

	inHeader := true
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			inHeader = false

			number := 0
			fmt.Sscanf(m[1], "%d", &number)
			n := number
			current = &lessonSection{lessonNumber: &n}
			course.Lessons = append(course.Lessons, models.Lesson{
				LessonNumber: number,
				Title:        strings.TrimSpace(m[2]),
			})
			continue
		}

		if current != nil && len(buf) == 0 && len(course.Lessons) > 0 {
			if link, ok := strings.CutPrefix(trimmed, "Lesson Link:"); ok {
				course.Lessons[len(course.Lessons)-1].LessonLink = strings.TrimSpace(link)
				continue
			}
		}

		if inHeader {
			switch {
			case strings.HasPrefix(trimmed, "Course Title:"):
				course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
				continue
			case strings.HasPrefix(trimmed, "Course Link:"):
				course.CourseLink = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
				continue
			case strings.HasPrefix(trimmed, "Course Instructor:"):
				course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
				continue
			case trimmed == "":
				continue
			default:
				// Content before any lesson marker belongs to the course.
				inHeader = false
				current = &lessonSection{}
			}
		}

		if current != nil {
			buf = append(buf, line)
		}
	}
	flush()

	return course, sections
}

// readDocument extracts plain text from a transcript file based on its
// extension.
func readDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return readPDF(path)
	case ".docx":
		return readDocx(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// readPDF extracts text from a PDF file page by page.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// readDocx extracts text from a Word document, stripping XML tags.
var xmlTag = regexp.MustCompile(`<[^>]+>`)

func readDocx(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	return xmlTag.ReplaceAllString(content, ""), nil
}

// SupportedFile reports whether a file name has an ingestible extension.
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf", ".docx":
		return true
	default:
		return false
	}
}
