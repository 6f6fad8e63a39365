package grading

const (
	latePenaltyFactor = 0.8
	earlyBonusPoints  = 2.0
)

// StudentTest holds one student's per-question scores on a Test.
type StudentTest struct {
	Student Student   `json:"student"`
	Scores  []float64 `json:"scores"`
}

// NewStudentTest copies scores so later mutation by the caller cannot change the record.
func NewStudentTest(student Student, scores []float64) StudentTest {
	copied := make([]float64, len(scores))
	copy(copied, scores)
	return StudentTest{Student: student, Scores: copied}
}

// Total sums the per-question scores.
func (r StudentTest) Total() float64 {
	var total float64
	for _, score := range r.Scores {
		total += score
	}
	return total
}

// StudentAssignment holds one student's submission on an Assignment.
type StudentAssignment struct {
	Student     Student `json:"student"`
	Grade       float64 `json:"grade"`
	SubmittedOn Date    `json:"submitted_on"`
	Runtime     int     `json:"runtime"`
}

// NewStudentAssignment builds a submission record.
func NewStudentAssignment(student Student, grade float64, submittedOn Date, runtime int) StudentAssignment {
	return StudentAssignment{Student: student, Grade: grade, SubmittedOn: submittedOn, Runtime: runtime}
}

// TotalGrade applies the lateness penalty or the early-completion bonus to the raw grade.
//
// A submission strictly after deadline is worth 80% of its raw grade, whatever its runtime.
// An on-time submission that already holds maxValue and ran within runtimeExpected earns
// two extra points. The bonus is not clamped, so the result may exceed maxValue.
func (r StudentAssignment) TotalGrade(deadline Date, runtimeExpected int, maxValue float64) float64 {
	grade := r.Grade

	if r.SubmittedOn.Posterior(deadline) {
		grade = grade * latePenaltyFactor
	} else if r.Runtime <= runtimeExpected && r.Grade == maxValue {
		grade = grade + earlyBonusPoints
	}

	return grade
}

// IsLate reports whether the submission arrived after deadline.
func (r StudentAssignment) IsLate(deadline Date) bool {
	return r.SubmittedOn.Posterior(deadline)
}
