package dto

import (
	"github.com/filipesuhett/academic-system/internal/grading"
)

// TeacherCreateRequest describes the payload for registering a teacher.
type TeacherCreateRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=255"`
	NationalID string  `json:"national_id" validate:"required,max=32,excludesall=;"`
	Salary     float64 `json:"salary" validate:"gte=0"`
}

// TeacherResponse is the serialized representation of a teacher.
type TeacherResponse struct {
	Name       string  `json:"name"`
	NationalID string  `json:"national_id"`
	Salary     float64 `json:"salary"`
}

// NewTeacherResponse converts an engine teacher into a DTO.
func NewTeacherResponse(teacher grading.Teacher) TeacherResponse {
	return TeacherResponse{
		Name:       teacher.Name,
		NationalID: teacher.NationalID,
		Salary:     teacher.Salary,
	}
}

// NewTeacherResponseSlice converts a slice of teachers into DTOs.
func NewTeacherResponseSlice(teachers []grading.Teacher) []TeacherResponse {
	responses := make([]TeacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		responses = append(responses, NewTeacherResponse(teacher))
	}
	return responses
}
