// Package flatfile reads and appends the ";"-separated student and teacher records
// that the system loads at startup.
package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/filipesuhett/academic-system/internal/grading"
)

const (
	// StudentsFile holds name;nationalID;enrollmentID records.
	StudentsFile = "students.txt"
	// TeachersFile holds name;nationalID;salary records.
	TeachersFile = "teachers.txt"

	separator = ";"
)

// ErrMalformedRecord indicates a line that does not split into the expected fields.
var ErrMalformedRecord = errors.New("malformed record")

// Store appends to and loads from the record files inside Dir.
type Store struct {
	Dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// LoadStudents reads every student record. A missing file yields no records.
func (s *Store) LoadStudents() ([]grading.Student, error) {
	var students []grading.Student
	err := s.load(StudentsFile, func(r io.Reader) error {
		var err error
		students, err = ReadStudents(r)
		return err
	})
	return students, err
}

// LoadTeachers reads every teacher record. A missing file yields no records.
func (s *Store) LoadTeachers() ([]grading.Teacher, error) {
	var teachers []grading.Teacher
	err := s.load(TeachersFile, func(r io.Reader) error {
		var err error
		teachers, err = ReadTeachers(r)
		return err
	})
	return teachers, err
}

// AppendStudent adds one student line to the students file.
func (s *Store) AppendStudent(student grading.Student) error {
	return s.append(StudentsFile, FormatStudent(student))
}

// AppendTeacher adds one teacher line to the teachers file.
func (s *Store) AppendTeacher(teacher grading.Teacher) error {
	return s.append(TeachersFile, FormatTeacher(teacher))
}

func (s *Store) load(name string, read func(io.Reader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if err := read(f); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

func (s *Store) append(name, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}

	if _, err := io.WriteString(f, line+"\n"); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// ReadStudents parses name;nationalID;enrollmentID lines.
func ReadStudents(r io.Reader) ([]grading.Student, error) {
	var students []grading.Student
	err := scan(r, 3, func(fields []string) error {
		if fields[2] == "" {
			return fmt.Errorf("%w: empty enrollment id", ErrMalformedRecord)
		}
		students = append(students, grading.Student{
			Name:         fields[0],
			NationalID:   fields[1],
			EnrollmentID: fields[2],
		})
		return nil
	})
	return students, err
}

// ReadTeachers parses name;nationalID;salary lines.
func ReadTeachers(r io.Reader) ([]grading.Teacher, error) {
	var teachers []grading.Teacher
	err := scan(r, 3, func(fields []string) error {
		salary, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("%w: salary %q", ErrMalformedRecord, fields[2])
		}
		if fields[1] == "" {
			return fmt.Errorf("%w: empty national id", ErrMalformedRecord)
		}
		teachers = append(teachers, grading.Teacher{
			Name:       fields[0],
			NationalID: fields[1],
			Salary:     salary,
		})
		return nil
	})
	return teachers, err
}

// FormatStudent renders a student as one record line without the newline.
func FormatStudent(student grading.Student) string {
	return strings.Join([]string{clean(student.Name), clean(student.NationalID), clean(student.EnrollmentID)}, separator)
}

// FormatTeacher renders a teacher as one record line without the newline.
func FormatTeacher(teacher grading.Teacher) string {
	salary := strconv.FormatFloat(teacher.Salary, 'f', -1, 64)
	return strings.Join([]string{clean(teacher.Name), clean(teacher.NationalID), salary}, separator)
}

// scan skips blank lines and lines starting with '#'.
func scan(r io.Reader, fieldCount int, handle func([]string) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, separator)
		if len(fields) != fieldCount {
			return fmt.Errorf("line %d: %w: expected %d fields, got %d", lineNo, ErrMalformedRecord, fieldCount, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if err := handle(fields); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// clean keeps a field from breaking the record layout.
func clean(value string) string {
	value = strings.ReplaceAll(value, separator, ",")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(strings.ReplaceAll(value, "\r", " "))
}
