package grading

// Report is the rollup across every registered classroom.
type Report struct {
	Policy     Policy    `json:"policy"`
	Classrooms []Summary `json:"classrooms"`
	Students   int       `json:"students"`
	Average    float64   `json:"average"`
	Median     float64   `json:"median"`
}

// BuildReport summarises every classroom in order and derives the overall average and
// median over all students' final grades. No classrooms yields an empty report.
func BuildReport(classrooms []*Classroom, policy Policy) (Report, error) {
	if !policy.Valid() {
		return Report{}, invalid("policy", "unknown grading policy %q", policy)
	}

	report := Report{Policy: policy, Classrooms: make([]Summary, 0, len(classrooms))}
	var all []float64
	for _, classroom := range classrooms {
		summary, err := classroom.Summary(policy)
		if err != nil {
			return Report{}, err
		}
		for _, g := range summary.Grades {
			all = append(all, g.FinalGrade)
		}
		report.Classrooms = append(report.Classrooms, summary)
	}

	report.Students = len(all)
	report.Average = Mean(all)
	report.Median = Median(all)
	return report, nil
}
