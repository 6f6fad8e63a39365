package grading

// Student is a registered learner. EnrollmentID is the unique key.
type Student struct {
	Name         string `json:"name"`
	NationalID   string `json:"national_id"`
	EnrollmentID string `json:"enrollment_id"`
}

// Teacher is a registered instructor. NationalID is the unique key.
type Teacher struct {
	Name       string  `json:"name"`
	NationalID string  `json:"national_id"`
	Salary     float64 `json:"salary"`
}
