package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	// ExamKindTest marks an exam graded by per-question scores.
	ExamKindTest = "test"
	// ExamKindAssignment marks an exam graded with lateness and runtime adjustments.
	ExamKindAssignment = "assignment"
)

// Classroom represents one subject offering with its roster and exams.
type Classroom struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	Subject     string                `gorm:"size:255;not null" json:"subject"`
	Year        int                   `gorm:"not null" json:"year"`
	Semester    int                   `gorm:"not null" json:"semester"`
	TeacherID   uint                  `gorm:"not null;index" json:"teacher_id"`
	Teacher     Teacher               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"teacher"`
	Enrollments []ClassroomEnrollment `gorm:"foreignKey:ClassroomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"enrollments"`
	Exams       []Exam                `gorm:"foreignKey:ClassroomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exams"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ClassroomEnrollment places a student on a classroom roster at a fixed position.
type ClassroomEnrollment struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	ClassroomID uint    `gorm:"not null;uniqueIndex:idx_enrollment_classroom_student" json:"classroom_id"`
	StudentID   uint    `gorm:"not null;uniqueIndex:idx_enrollment_classroom_student" json:"student_id"`
	Position    int     `gorm:"not null" json:"position"`
	Student     Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"student"`
}

// Exam is a test or an assignment inside a classroom.
type Exam struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ClassroomID     uint         `gorm:"not null;index" json:"classroom_id"`
	Position        int          `gorm:"not null" json:"position"`
	Kind            string       `gorm:"size:16;not null" json:"kind"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Day             int          `gorm:"not null" json:"day"`
	Month           int          `gorm:"not null" json:"month"`
	Year            int          `gorm:"not null" json:"year"`
	MaxValue        float64      `gorm:"not null" json:"max_value"`
	Questions       int          `json:"questions"`
	ExpectedRuntime int          `json:"expected_runtime"`
	Results         []ExamResult `gorm:"foreignKey:ExamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"results"`
}

// ExamResult is one student's record on an exam. Tests fill Scores; assignments fill
// Grade, the submission date and Runtime.
type ExamResult struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ExamID         uint           `gorm:"not null;index" json:"exam_id"`
	StudentID      uint           `gorm:"not null;index" json:"student_id"`
	Position       int            `gorm:"not null" json:"position"`
	Scores         datatypes.JSON `gorm:"type:json" json:"-"`
	Grade          float64        `json:"grade"`
	SubmittedDay   int            `json:"submitted_day"`
	SubmittedMonth int            `json:"submitted_month"`
	SubmittedYear  int            `json:"submitted_year"`
	Runtime        int            `json:"runtime"`
	Student        Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"student"`
}

// SetScores serializes per-question scores into the JSON column.
func (r *ExamResult) SetScores(scores []float64) {
	if scores == nil {
		scores = []float64{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		r.Scores = datatypes.JSON([]byte("[]"))
		return
	}
	r.Scores = datatypes.JSON(data)
}

// ScoreList deserializes the stored per-question scores.
func (r ExamResult) ScoreList() []float64 {
	if len(r.Scores) == 0 {
		return nil
	}

	var scores []float64
	if err := json.Unmarshal(r.Scores, &scores); err != nil {
		return nil
	}
	return scores
}

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{&Student{}, &Teacher{}, &Classroom{}, &ClassroomEnrollment{}, &Exam{}, &ExamResult{}}
}
