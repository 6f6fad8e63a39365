package dto

import (
	"github.com/filipesuhett/academic-system/internal/grading"
)

// ClassroomCreateRequest registers a classroom with every exam and result at once.
// Empty students or exams are left for the grading engine to reject.
type ClassroomCreateRequest struct {
	Subject           string        `json:"subject" validate:"required,min=2,max=255"`
	Year              int           `json:"year" validate:"required,gt=0"`
	Semester          int           `json:"semester" validate:"required,oneof=1 2"`
	TeacherNationalID string        `json:"teacher_national_id" validate:"required"`
	Students          []string      `json:"students" validate:"dive,required"`
	Exams             []ExamRequest `json:"exams" validate:"dive"`
}

// ExamRequest describes a test or an assignment. Dates use d/m/yyyy.
type ExamRequest struct {
	Kind            string              `json:"kind" validate:"required,oneof=test assignment"`
	Name            string              `json:"name" validate:"required,max=255"`
	Date            string              `json:"date" validate:"required"`
	MaxValue        float64             `json:"max_value" validate:"gt=0"`
	Questions       int                 `json:"questions" validate:"required_if=Kind test,gte=0"`
	ExpectedRuntime int                 `json:"expected_runtime" validate:"gte=0"`
	Results         []ExamResultRequest `json:"results" validate:"dive"`
}

// ExamResultRequest is one student's record on an exam.
type ExamResultRequest struct {
	EnrollmentID string    `json:"enrollment_id" validate:"required"`
	Scores       []float64 `json:"scores,omitempty"`
	Grade        *float64  `json:"grade,omitempty"`
	SubmittedOn  string    `json:"submitted_on,omitempty"`
	Runtime      int       `json:"runtime" validate:"gte=0"`
}

// ClassroomResponse describes a registered classroom.
type ClassroomResponse struct {
	ID       uint                 `json:"id"`
	Subject  string               `json:"subject"`
	Year     int                  `json:"year"`
	Semester int                  `json:"semester"`
	Teacher  TeacherResponse      `json:"teacher"`
	Students []StudentResponse    `json:"students"`
	Exams    []grading.ExamDetail `json:"exams"`
}

// NewClassroomResponse converts an engine classroom into a DTO.
func NewClassroomResponse(id uint, classroom *grading.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:       id,
		Subject:  classroom.Subject(),
		Year:     classroom.Year(),
		Semester: classroom.Semester(),
		Teacher:  NewTeacherResponse(classroom.Teacher()),
		Students: NewStudentResponseSlice(classroom.Roster()),
		Exams:    classroom.ExamDetails(),
	}
}
