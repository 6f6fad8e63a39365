package service

import (
	"fmt"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/models"
)

type studentLookup func(enrollmentID string) (grading.Student, bool)

// buildClassroom turns a registration request into an engine classroom. Students are
// resolved through lookup; the engine enforces the roster and exam invariants.
func buildClassroom(req dto.ClassroomCreateRequest, subject string, teacher grading.Teacher, lookup studentLookup) (*grading.Classroom, error) {
	roster := make([]grading.Student, 0, len(req.Students))
	for _, enrollmentID := range req.Students {
		student, ok := lookup(enrollmentID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, enrollmentID)
		}
		roster = append(roster, student)
	}

	exams := make([]grading.Exam, 0, len(req.Exams))
	for i, examReq := range req.Exams {
		exam, err := buildExam(examReq, lookup)
		if err != nil {
			return nil, fmt.Errorf("exam %d: %w", i+1, err)
		}
		exams = append(exams, exam)
	}

	return grading.NewClassroom(subject, req.Year, req.Semester, teacher, roster, exams)
}

func buildExam(req dto.ExamRequest, lookup studentLookup) (grading.Exam, error) {
	date, err := grading.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	switch req.Kind {
	case string(grading.ExamKindTest):
		results := make([]grading.StudentTest, 0, len(req.Results))
		for _, result := range req.Results {
			student, ok := lookup(result.EnrollmentID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, result.EnrollmentID)
			}
			results = append(results, grading.NewStudentTest(student, result.Scores))
		}
		return grading.NewTest(req.Name, date, req.MaxValue, req.Questions, results)
	case string(grading.ExamKindAssignment):
		results := make([]grading.StudentAssignment, 0, len(req.Results))
		for _, result := range req.Results {
			student, ok := lookup(result.EnrollmentID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, result.EnrollmentID)
			}
			if result.Grade == nil {
				return nil, &grading.ValidationError{Field: "grade", Message: fmt.Sprintf("missing grade for %s", result.EnrollmentID)}
			}
			submittedOn, err := grading.ParseDate(result.SubmittedOn)
			if err != nil {
				return nil, err
			}
			results = append(results, grading.NewStudentAssignment(student, *result.Grade, submittedOn, result.Runtime))
		}
		return grading.NewAssignment(req.Name, date, req.MaxValue, req.ExpectedRuntime, results)
	default:
		return nil, &grading.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown exam kind %q", req.Kind)}
	}
}

// classroomToModel maps an engine classroom onto persistence rows. studentIDs resolves
// enrollment ids to database keys.
func classroomToModel(classroom *grading.Classroom, teacherID uint, studentIDs map[string]uint) (models.Classroom, error) {
	model := models.Classroom{
		Subject:   classroom.Subject(),
		Year:      classroom.Year(),
		Semester:  classroom.Semester(),
		TeacherID: teacherID,
	}

	for i, student := range classroom.Roster() {
		id, ok := studentIDs[student.EnrollmentID]
		if !ok {
			return models.Classroom{}, fmt.Errorf("%w: %s", ErrStudentNotFound, student.EnrollmentID)
		}
		model.Enrollments = append(model.Enrollments, models.ClassroomEnrollment{StudentID: id, Position: i})
	}

	for i, exam := range classroom.Exams() {
		row := models.Exam{Position: i, Name: exam.Name(), MaxValue: exam.Weight()}

		switch e := exam.(type) {
		case *grading.Test:
			row.Kind = models.ExamKindTest
			row.Day, row.Month, row.Year = e.AppliedOn().Day, e.AppliedOn().Month, e.AppliedOn().Year
			row.Questions = e.Questions()
			for j, result := range e.Results() {
				record := models.ExamResult{StudentID: studentIDs[result.Student.EnrollmentID], Position: j}
				record.SetScores(result.Scores)
				row.Results = append(row.Results, record)
			}
		case *grading.Assignment:
			row.Kind = models.ExamKindAssignment
			row.Day, row.Month, row.Year = e.DueOn().Day, e.DueOn().Month, e.DueOn().Year
			row.ExpectedRuntime = e.ExpectedRuntime()
			for j, result := range e.Results() {
				row.Results = append(row.Results, models.ExamResult{
					StudentID:      studentIDs[result.Student.EnrollmentID],
					Position:       j,
					Grade:          result.Grade,
					SubmittedDay:   result.SubmittedOn.Day,
					SubmittedMonth: result.SubmittedOn.Month,
					SubmittedYear:  result.SubmittedOn.Year,
					Runtime:        result.Runtime,
				})
			}
		default:
			return models.Classroom{}, &grading.ValidationError{Field: "exam", Message: fmt.Sprintf("unsupported exam %q", exam.Name())}
		}

		model.Exams = append(model.Exams, row)
	}

	return model, nil
}

// classroomFromModel rebuilds an engine classroom from preloaded persistence rows.
func classroomFromModel(model models.Classroom) (*grading.Classroom, error) {
	roster := make([]grading.Student, 0, len(model.Enrollments))
	for _, enrollment := range model.Enrollments {
		roster = append(roster, studentFromModel(enrollment.Student))
	}

	exams := make([]grading.Exam, 0, len(model.Exams))
	for _, row := range model.Exams {
		date := grading.Date{Day: row.Day, Month: row.Month, Year: row.Year}

		switch row.Kind {
		case models.ExamKindTest:
			results := make([]grading.StudentTest, 0, len(row.Results))
			for _, result := range row.Results {
				results = append(results, grading.NewStudentTest(studentFromModel(result.Student), result.ScoreList()))
			}
			test, err := grading.NewTest(row.Name, date, row.MaxValue, row.Questions, results)
			if err != nil {
				return nil, err
			}
			exams = append(exams, test)
		case models.ExamKindAssignment:
			results := make([]grading.StudentAssignment, 0, len(row.Results))
			for _, result := range row.Results {
				submittedOn := grading.Date{Day: result.SubmittedDay, Month: result.SubmittedMonth, Year: result.SubmittedYear}
				results = append(results, grading.NewStudentAssignment(studentFromModel(result.Student), result.Grade, submittedOn, result.Runtime))
			}
			assignment, err := grading.NewAssignment(row.Name, date, row.MaxValue, row.ExpectedRuntime, results)
			if err != nil {
				return nil, err
			}
			exams = append(exams, assignment)
		default:
			return nil, &grading.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown exam kind %q", row.Kind)}
		}
	}

	return grading.NewClassroom(model.Subject, model.Year, model.Semester, teacherFromModel(model.Teacher), roster, exams)
}

func studentFromModel(student models.Student) grading.Student {
	return grading.Student{Name: student.Name, NationalID: student.NationalID, EnrollmentID: student.EnrollmentID}
}

func teacherFromModel(teacher models.Teacher) grading.Teacher {
	return grading.Teacher{Name: teacher.Name, NationalID: teacher.NationalID, Salary: teacher.Salary}
}
