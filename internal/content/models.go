// Package content holds the static course catalog: the module/lesson tree
// and the assessment definitions. The catalog is loaded once at startup
// and is read-only to the rest of the engine.
package content

type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date,omitempty"`
	Certificate bool     `json:"certificate,omitempty"`
	Modules     []Module `json:"modules"`
}

type Module struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	UnlockDate  string   `json:"unlock_date,omitempty"` // default: start + index*step
	Lessons     []Lesson `json:"lessons"`
}

type Lesson struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	VideoURL     string          `json:"video_url,omitempty"`
	DurationSec  int             `json:"duration_sec"`
	UnlockDate   string          `json:"unlock_date,omitempty"`
	AssessmentID string          `json:"assessment_id,omitempty"`
	Questions    []VideoQuestion `json:"questions,omitempty"`
	Resources    []Resource      `json:"resources,omitempty"`
}

// VideoQuestion is an in-video prompt shown at AtSec into the lesson.
type VideoQuestion struct {
	ID     string `json:"id"`
	AtSec  int    `json:"at_sec"`
	Prompt string `json:"prompt"`
}

type ResourceKind string

const (
	ResourcePDF   ResourceKind = "pdf"
	ResourceLink  ResourceKind = "link"
	ResourceCode  ResourceKind = "code"
	ResourceVideo ResourceKind = "video"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourcePDF, ResourceLink, ResourceCode, ResourceVideo:
		return true
	}
	return false
}

type Resource struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Kind  ResourceKind `json:"kind"`
}

type Assessment struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lesson_id"`
	Title     string     `json:"title"`
	DueDate   string     `json:"due_date,omitempty"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}
