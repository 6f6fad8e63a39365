package grading

import (
	"fmt"
	"strings"
)

// Classroom is one subject offering with its teacher, roster and exams.
// It is immutable once built.
type Classroom struct {
	subject  string
	year     int
	semester int
	teacher  Teacher
	roster   []Student
	exams    []Exam
	enrolled map[string]int
}

// StudentGrade pairs a student with a final classroom grade.
type StudentGrade struct {
	Student    Student `json:"student"`
	FinalGrade float64 `json:"final_grade"`
}

// Summary is the classroom-level statistic set handed to reporting.
type Summary struct {
	Subject  string         `json:"subject"`
	Year     int            `json:"year"`
	Semester int            `json:"semester"`
	Teacher  Teacher        `json:"teacher"`
	Policy   Policy         `json:"policy"`
	Grades   []StudentGrade `json:"grades"`
	Average  float64        `json:"average"`
	Median   float64        `json:"median"`
	Min      float64        `json:"min"`
	Max      float64        `json:"max"`
}

// ExamDetail describes one exam for reporting.
type ExamDetail struct {
	Name            string   `json:"name"`
	Kind            ExamKind `json:"kind"`
	Date            Date     `json:"date"`
	Weight          float64  `json:"weight"`
	Questions       int      `json:"questions,omitempty"`
	ExpectedRuntime int      `json:"expected_runtime,omitempty"`
}

// NewClassroom validates and builds a Classroom.
//
// It fails with EmptyClassroomError when roster or exams is empty, and with ValidationError
// when the roster repeats an enrollment id, an exam holds a result for a student outside the
// roster, or an exam lacks a result for an enrolled student.
func NewClassroom(subject string, year, semester int, teacher Teacher, roster []Student, exams []Exam) (*Classroom, error) {
	subject = strings.TrimSpace(subject)
	if len(roster) == 0 {
		return nil, &EmptyClassroomError{Subject: subject, Reason: "no students enrolled"}
	}
	if len(exams) == 0 {
		return nil, &EmptyClassroomError{Subject: subject, Reason: "no exams defined"}
	}
	if subject == "" {
		return nil, invalid("subject", "subject name is required")
	}
	if year <= 0 {
		return nil, invalid("year", "must be positive, got %d", year)
	}
	if semester != 1 && semester != 2 {
		return nil, invalid("semester", "must be 1 or 2, got %d", semester)
	}
	if teacher.NationalID == "" {
		return nil, invalid("teacher", "teacher national id is required")
	}

	enrolled := make(map[string]int, len(roster))
	for i, student := range roster {
		if student.EnrollmentID == "" {
			return nil, invalid("roster", "student %q has no enrollment id", student.Name)
		}
		if _, dup := enrolled[student.EnrollmentID]; dup {
			return nil, invalid("roster", "enrollment id %s appears more than once", student.EnrollmentID)
		}
		enrolled[student.EnrollmentID] = i
	}

	for _, exam := range exams {
		if exam == nil {
			return nil, invalid("exams", "nil exam")
		}
		if _, err := Describe(exam); err != nil {
			return nil, err
		}
		present := make(map[string]struct{}, len(roster))
		for _, id := range exam.EnrollmentIDs() {
			if _, ok := enrolled[id]; !ok {
				return nil, invalid("exams", "exam %q has a result for %s who is not enrolled", exam.Name(), id)
			}
			present[id] = struct{}{}
		}
		for _, student := range roster {
			if _, ok := present[student.EnrollmentID]; !ok {
				return nil, invalid("exams", "exam %q has no result for enrolled student %s", exam.Name(), student.EnrollmentID)
			}
		}
	}

	rosterCopy := make([]Student, len(roster))
	copy(rosterCopy, roster)
	examsCopy := make([]Exam, len(exams))
	copy(examsCopy, exams)

	return &Classroom{
		subject:  subject,
		year:     year,
		semester: semester,
		teacher:  teacher,
		roster:   rosterCopy,
		exams:    examsCopy,
		enrolled: enrolled,
	}, nil
}

func (c *Classroom) Subject() string  { return c.subject }
func (c *Classroom) Year() int        { return c.year }
func (c *Classroom) Semester() int    { return c.semester }
func (c *Classroom) Teacher() Teacher { return c.teacher }

// Roster returns a copy of the enrolled students in enrollment order.
func (c *Classroom) Roster() []Student {
	out := make([]Student, len(c.roster))
	copy(out, c.roster)
	return out
}

// Exams returns a copy of the exam sequence.
func (c *Classroom) Exams() []Exam {
	out := make([]Exam, len(c.exams))
	copy(out, c.exams)
	return out
}

// TotalWeight sums the max value of every exam.
func (c *Classroom) TotalWeight() float64 {
	var total float64
	for _, exam := range c.exams {
		total += exam.Weight()
	}
	return total
}

// FinalGrade computes one enrolled student's final grade under policy.
func (c *Classroom) FinalGrade(enrollmentID string, policy Policy) (float64, error) {
	i, ok := c.enrolled[enrollmentID]
	if !ok {
		return 0, invalid("student", "%s is not enrolled in %q", enrollmentID, c.subject)
	}
	return c.finalGrade(c.roster[i], policy)
}

// FinalGrades computes every enrolled student's final grade in roster order.
func (c *Classroom) FinalGrades(policy Policy) ([]StudentGrade, error) {
	if !policy.Valid() {
		return nil, invalid("policy", "unknown grading policy %q", policy)
	}
	grades := make([]StudentGrade, 0, len(c.roster))
	for _, student := range c.roster {
		grade, err := c.finalGrade(student, policy)
		if err != nil {
			return nil, err
		}
		grades = append(grades, StudentGrade{Student: student, FinalGrade: grade})
	}
	return grades, nil
}

// Summary computes the final grades plus average, median, min and max.
func (c *Classroom) Summary(policy Policy) (Summary, error) {
	grades, err := c.FinalGrades(policy)
	if err != nil {
		return Summary{}, err
	}

	values := make([]float64, len(grades))
	for i, g := range grades {
		values[i] = g.FinalGrade
	}
	lo, hi := minMax(values)

	return Summary{
		Subject:  c.subject,
		Year:     c.year,
		Semester: c.semester,
		Teacher:  c.teacher,
		Policy:   policy,
		Grades:   grades,
		Average:  Mean(values),
		Median:   Median(values),
		Min:      lo,
		Max:      hi,
	}, nil
}

// ExamDetails describes every exam in sequence order.
func (c *Classroom) ExamDetails() []ExamDetail {
	details := make([]ExamDetail, 0, len(c.exams))
	for _, exam := range c.exams {
		// NewClassroom already rejected unknown variants.
		detail, _ := Describe(exam)
		details = append(details, detail)
	}
	return details
}

func (c *Classroom) finalGrade(student Student, policy Policy) (float64, error) {
	if !policy.Valid() {
		return 0, invalid("policy", "unknown grading policy %q", policy)
	}
	var adjusted, weights float64
	for _, exam := range c.exams {
		grade, err := exam.GradeFor(student)
		if err != nil {
			return 0, fmt.Errorf("grading %s in %q: %w", student.EnrollmentID, c.subject, err)
		}
		adjusted += grade
		weights += exam.Weight()
	}
	return policy.combine(adjusted, weights), nil
}

// Describe reports the variant-specific fields of exam.
func Describe(exam Exam) (ExamDetail, error) {
	switch e := exam.(type) {
	case *Test:
		if e == nil {
			return ExamDetail{}, invalid("exams", "nil test")
		}
		return ExamDetail{
			Name:      e.name,
			Kind:      ExamKindTest,
			Date:      e.appliedOn,
			Weight:    e.maxValue,
			Questions: e.questions,
		}, nil
	case *Assignment:
		if e == nil {
			return ExamDetail{}, invalid("exams", "nil assignment")
		}
		return ExamDetail{
			Name:            e.name,
			Kind:            ExamKindAssignment,
			Date:            e.dueOn,
			Weight:          e.maxValue,
			ExpectedRuntime: e.expectedRuntime,
		}, nil
	default:
		return ExamDetail{}, invalid("exams", "unsupported exam type %T", exam)
	}
}
