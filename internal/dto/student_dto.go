package dto

import (
	"github.com/filipesuhett/academic-system/internal/grading"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	NationalID   string `json:"national_id" validate:"required,max=32,excludesall=;"`
	EnrollmentID string `json:"enrollment_id" validate:"required,max=64,excludesall=;"`
}

// StudentResponse is the serialized representation of a student.
type StudentResponse struct {
	Name         string `json:"name"`
	NationalID   string `json:"national_id"`
	EnrollmentID string `json:"enrollment_id"`
}

// StudentImportResponse reports the outcome of a bulk students.txt import.
type StudentImportResponse struct {
	Imported []StudentResponse `json:"imported"`
	Skipped  []string          `json:"skipped"`
}

// NewStudentResponse converts an engine student into a DTO.
func NewStudentResponse(student grading.Student) StudentResponse {
	return StudentResponse{
		Name:         student.Name,
		NationalID:   student.NationalID,
		EnrollmentID: student.EnrollmentID,
	}
}

// NewStudentResponseSlice converts a slice of students into DTOs.
func NewStudentResponseSlice(students []grading.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
