package dto

import (
	"github.com/filipesuhett/academic-system/internal/grading"
)

// StudentGradeResponse is one roster line of a classroom report.
type StudentGradeResponse struct {
	EnrollmentID string  `json:"enrollment_id"`
	Name         string  `json:"name"`
	FinalGrade   float64 `json:"final_grade"`
}

// ClassroomGradesResponse summarises one classroom under a grading policy.
type ClassroomGradesResponse struct {
	ID          uint                   `json:"id"`
	Subject     string                 `json:"subject"`
	Year        int                    `json:"year"`
	Semester    int                    `json:"semester"`
	TeacherName string                 `json:"teacher_name"`
	Policy      string                 `json:"policy"`
	Students    []StudentGradeResponse `json:"students"`
	Average     float64                `json:"average"`
	Median      float64                `json:"median"`
	Min         float64                `json:"min"`
	Max         float64                `json:"max"`
}

// GradeReportResponse is the rollup across every classroom.
type GradeReportResponse struct {
	Policy     string                    `json:"policy"`
	Classrooms []ClassroomGradesResponse `json:"classrooms"`
	Students   int                       `json:"students"`
	Average    float64                   `json:"average"`
	Median     float64                   `json:"median"`
}

// NewClassroomGradesResponse converts an engine summary into a DTO.
func NewClassroomGradesResponse(id uint, summary grading.Summary) ClassroomGradesResponse {
	students := make([]StudentGradeResponse, 0, len(summary.Grades))
	for _, grade := range summary.Grades {
		students = append(students, StudentGradeResponse{
			EnrollmentID: grade.Student.EnrollmentID,
			Name:         grade.Student.Name,
			FinalGrade:   grade.FinalGrade,
		})
	}

	return ClassroomGradesResponse{
		ID:          id,
		Subject:     summary.Subject,
		Year:        summary.Year,
		Semester:    summary.Semester,
		TeacherName: summary.Teacher.Name,
		Policy:      summary.Policy.String(),
		Students:    students,
		Average:     summary.Average,
		Median:      summary.Median,
		Min:         summary.Min,
		Max:         summary.Max,
	}
}

// NewGradeReportResponse converts an engine report into a DTO. ids holds the classroom
// identifiers in report order.
func NewGradeReportResponse(ids []uint, report grading.Report) GradeReportResponse {
	classrooms := make([]ClassroomGradesResponse, 0, len(report.Classrooms))
	for i, summary := range report.Classrooms {
		var id uint
		if i < len(ids) {
			id = ids[i]
		}
		classrooms = append(classrooms, NewClassroomGradesResponse(id, summary))
	}

	return GradeReportResponse{
		Policy:     report.Policy.String(),
		Classrooms: classrooms,
		Students:   report.Students,
		Average:    report.Average,
		Median:     report.Median,
	}
}
