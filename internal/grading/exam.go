package grading

import "math"

// ExamKind names an Exam variant.
type ExamKind string

const (
	ExamKindTest       ExamKind = "test"
	ExamKindAssignment ExamKind = "assignment"
)

// scoreTolerance absorbs rounding when decimal question scores are summed.
const scoreTolerance = 1e-9

// Exam is implemented only by *Test and *Assignment.
type Exam interface {
	Name() string
	Kind() ExamKind
	// Weight is the exam's max value.
	Weight() float64
	// GradeFor returns the adjusted grade of an enrolled student.
	GradeFor(student Student) (float64, error)
	// EnrollmentIDs lists the students holding a result, in record order.
	EnrollmentIDs() []string

	sealed()
}

// Test is an Exam graded by summing per-question scores.
type Test struct {
	name      string
	appliedOn Date
	maxValue  float64
	questions int
	results   []StudentTest
	index     map[string]int
}

// NewTest validates and builds a Test. Every result must carry exactly questions
// non-negative scores whose sum does not exceed maxValue.
func NewTest(name string, appliedOn Date, maxValue float64, questions int, results []StudentTest) (*Test, error) {
	if err := validateExamHeader(name, maxValue); err != nil {
		return nil, err
	}
	if questions < 1 {
		return nil, invalid("questions", "test %q needs at least one question", name)
	}

	owned := make([]StudentTest, 0, len(results))
	for _, result := range results {
		if err := validateStudentRef(result.Student); err != nil {
			return nil, err
		}
		if len(result.Scores) != questions {
			return nil, invalid("scores", "student %s has %d scores on test %q, expected %d",
				result.Student.EnrollmentID, len(result.Scores), name, questions)
		}
		for i, score := range result.Scores {
			if score < 0 || math.IsNaN(score) || math.IsInf(score, 0) {
				return nil, invalid("scores", "student %s question %d on test %q has invalid score %v",
					result.Student.EnrollmentID, i+1, name, score)
			}
		}
		if total := result.Total(); total > maxValue+scoreTolerance {
			return nil, invalid("scores", "student %s scored %v on test %q above its max value %v",
				result.Student.EnrollmentID, total, name, maxValue)
		}
		owned = append(owned, NewStudentTest(result.Student, result.Scores))
	}

	return &Test{
		name:      name,
		appliedOn: appliedOn,
		maxValue:  maxValue,
		questions: questions,
		results:   owned,
		index:     indexResults(len(owned), func(i int) string { return owned[i].Student.EnrollmentID }),
	}, nil
}

func (t *Test) Name() string    { return t.name }
func (t *Test) Kind() ExamKind  { return ExamKindTest }
func (t *Test) Weight() float64 { return t.maxValue }
func (t *Test) sealed()         {}

// AppliedOn is the date the test was applied.
func (t *Test) AppliedOn() Date { return t.appliedOn }

// Questions is the number of questions on the test.
func (t *Test) Questions() int { return t.questions }

// Results returns a copy of the per-student records.
func (t *Test) Results() []StudentTest {
	out := make([]StudentTest, len(t.results))
	for i, r := range t.results {
		out[i] = NewStudentTest(r.Student, r.Scores)
	}
	return out
}

// FinalGrade sums the student's question scores.
func (t *Test) FinalGrade(student Student) (float64, error) {
	i, ok := t.index[student.EnrollmentID]
	if !ok {
		return 0, invalid("student", "student %s has no result on test %q", student.EnrollmentID, t.name)
	}
	return t.results[i].Total(), nil
}

// GradeFor is FinalGrade.
func (t *Test) GradeFor(student Student) (float64, error) {
	return t.FinalGrade(student)
}

func (t *Test) EnrollmentIDs() []string {
	ids := make([]string, len(t.results))
	for i, r := range t.results {
		ids[i] = r.Student.EnrollmentID
	}
	return ids
}

// Assignment is an Exam graded with lateness and early-completion adjustments.
type Assignment struct {
	name            string
	dueOn           Date
	maxValue        float64
	expectedRuntime int
	results         []StudentAssignment
	index           map[string]int
}

// NewAssignment validates and builds an Assignment. Raw grades must lie in [0, maxValue]
// and runtimes must not be negative.
func NewAssignment(name string, dueOn Date, maxValue float64, expectedRuntime int, results []StudentAssignment) (*Assignment, error) {
	if err := validateExamHeader(name, maxValue); err != nil {
		return nil, err
	}
	if expectedRuntime < 0 {
		return nil, invalid("expected_runtime", "assignment %q has negative expected runtime %d", name, expectedRuntime)
	}

	owned := make([]StudentAssignment, 0, len(results))
	for _, result := range results {
		if err := validateStudentRef(result.Student); err != nil {
			return nil, err
		}
		if result.Grade < 0 || result.Grade > maxValue || math.IsNaN(result.Grade) {
			return nil, invalid("grade", "student %s has raw grade %v on assignment %q outside [0, %v]",
				result.Student.EnrollmentID, result.Grade, name, maxValue)
		}
		if result.Runtime < 0 {
			return nil, invalid("runtime", "student %s has negative runtime %d on assignment %q",
				result.Student.EnrollmentID, result.Runtime, name)
		}
		owned = append(owned, result)
	}

	return &Assignment{
		name:            name,
		dueOn:           dueOn,
		maxValue:        maxValue,
		expectedRuntime: expectedRuntime,
		results:         owned,
		index:           indexResults(len(owned), func(i int) string { return owned[i].Student.EnrollmentID }),
	}, nil
}

func (a *Assignment) Name() string    { return a.name }
func (a *Assignment) Kind() ExamKind  { return ExamKindAssignment }
func (a *Assignment) Weight() float64 { return a.maxValue }
func (a *Assignment) sealed()         {}

// DueOn is the assignment deadline.
func (a *Assignment) DueOn() Date { return a.dueOn }

// ExpectedRuntime is the runtime budget for the bonus.
func (a *Assignment) ExpectedRuntime() int { return a.expectedRuntime }

// Results returns a copy of the per-student records.
func (a *Assignment) Results() []StudentAssignment {
	out := make([]StudentAssignment, len(a.results))
	copy(out, a.results)
	return out
}

// GradeFor returns the student's adjusted grade.
func (a *Assignment) GradeFor(student Student) (float64, error) {
	i, ok := a.index[student.EnrollmentID]
	if !ok {
		return 0, invalid("student", "student %s has no result on assignment %q", student.EnrollmentID, a.name)
	}
	return a.results[i].TotalGrade(a.dueOn, a.expectedRuntime, a.maxValue), nil
}

func (a *Assignment) EnrollmentIDs() []string {
	ids := make([]string, len(a.results))
	for i, r := range a.results {
		ids[i] = r.Student.EnrollmentID
	}
	return ids
}

func validateExamHeader(name string, maxValue float64) error {
	if name == "" {
		return invalid("name", "exam name is required")
	}
	if maxValue <= 0 || math.IsNaN(maxValue) || math.IsInf(maxValue, 0) {
		return invalid("max_value", "exam %q needs a positive max value, got %v", name, maxValue)
	}
	return nil
}

func validateStudentRef(student Student) error {
	if student.EnrollmentID == "" {
		return invalid("student", "result without enrollment id")
	}
	return nil
}

// indexResults maps enrollment id to record position. A repeated student keeps its first record.
func indexResults(n int, key func(int) string) map[string]int {
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		if _, exists := index[key(i)]; !exists {
			index[key(i)] = i
		}
	}
	return index
}
