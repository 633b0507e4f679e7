// Package posting holds the job-posting shapes shared by extraction,
// inference and storage.
package posting

import (
	"time"

	"github.com/google/uuid"
)

// Field names one of the canonical text fields of a Draft.
type Field string

const (
	Title              Field = "title"
	Description        Field = "description"
	Responsibilities   Field = "responsibilities"
	Requirements       Field = "requirements"
	Salary             Field = "salary"
	WorkSchedule       Field = "workSchedule"
	WorkShift          Field = "workShift"
	Benefits           Field = "benefits"
	WorkLocation       Field = "workLocation"
	HiringProcessSteps Field = "hiringProcessSteps"
)

// Fields lists every canonical text field in resolution order.
var Fields = []Field{
	Title,
	Description,
	Responsibilities,
	Requirements,
	Salary,
	WorkSchedule,
	WorkShift,
	Benefits,
	WorkLocation,
	HiringProcessSteps,
}

// Multiline reports whether the field keeps paragraph breaks.
func (f Field) Multiline() bool {
	switch f {
	case Description, Responsibilities, Requirements, Benefits, HiringProcessSteps:
		return true
	}
	return false
}

// Valid reports whether f is one of the canonical fields.
func (f Field) Valid() bool {
	for _, c := range Fields {
		if c == f {
			return true
		}
	}
	return false
}

// Draft is the extraction output before human review. Every text field is
// always present; a field that could not be found is the empty string.
type Draft struct {
	SourceURL          string    `json:"sourceUrl"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Responsibilities   string    `json:"responsibilities"`
	Requirements       string    `json:"requirements"`
	Salary             string    `json:"salary"`
	WorkSchedule       string    `json:"workSchedule"`
	WorkShift          string    `json:"workShift"`
	Benefits           string    `json:"benefits"`
	WorkLocation       string    `json:"workLocation"`
	HiringProcessSteps string    `json:"hiringProcessSteps"`
	ExtractedAt        time.Time `json:"extractedAt"`
}

// Get returns the value of field f, or "" for an unknown field.
func (d *Draft) Get(f Field) string {
	if p := d.ptr(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns v to field f. Unknown fields are ignored.
func (d *Draft) Set(f Field, v string) {
	if p := d.ptr(f); p != nil {
		*p = v
	}
}

func (d *Draft) ptr(f Field) *string {
	switch f {
	case Title:
		return &d.Title
	case Description:
		return &d.Description
	case Responsibilities:
		return &d.Responsibilities
	case Requirements:
		return &d.Requirements
	case Salary:
		return &d.Salary
	case WorkSchedule:
		return &d.WorkSchedule
	case WorkShift:
		return &d.WorkShift
	case Benefits:
		return &d.Benefits
	case WorkLocation:
		return &d.WorkLocation
	case HiringProcessSteps:
		return &d.HiringProcessSteps
	}
	return nil
}

// Tier identifies which extraction strategy produced a field value.
type Tier string

const (
	TierStructured  Tier = "structured-data"
	TierSelector    Tier = "selector"
	TierKeyword     Tier = "keyword"
	TierRegex       Tier = "regex"
	TierPlaceholder Tier = "placeholder"
	TierNone        Tier = "none"
)

// Attempt records the tier that resolved a field. Diagnostic only.
type Attempt struct {
	Field Field `json:"field"`
	Tier  Tier  `json:"tier"`
}

// Posting is the persisted record: the reviewed draft plus the operator's
// classification metadata.
type Posting struct {
	ID uuid.UUID `json:"id"`
	Draft
	Client    string    `json:"client"`
	Category  string    `json:"category"`
	Product   string    `json:"product"`
	Site      string    `json:"site"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPosting is the input to a create operation: the edited draft fields
// and caller-supplied classification.
type NewPosting struct {
	Draft
	Client   string `json:"client"`
	Category string `json:"category"`
	Product  string `json:"product"`
	Site     string `json:"site"`
}
