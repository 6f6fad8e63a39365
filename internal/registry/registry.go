// Package registry holds the process-wide set of students, teachers and classrooms.
package registry

import (
	"errors"
	"sync"

	"github.com/filipesuhett/academic-system/internal/grading"
)

var (
	// ErrDuplicateStudent indicates the enrollment id is already registered.
	ErrDuplicateStudent = errors.New("student already registered")
	// ErrDuplicateTeacher indicates the national id is already registered.
	ErrDuplicateTeacher = errors.New("teacher already registered")
	// ErrDuplicateClassroom indicates the classroom id is already registered.
	ErrDuplicateClassroom = errors.New("classroom already registered")
)

// ClassroomEntry pairs a stored classroom with its identifier.
type ClassroomEntry struct {
	ID        uint
	Classroom *grading.Classroom
}

// Registry is the explicitly owned in-memory store shared by the registration and
// reporting services. Students, teachers and classrooms are append-only.
type Registry struct {
	mu             sync.RWMutex
	students       []grading.Student
	studentIndex   map[string]int
	teachers       []grading.Teacher
	teacherIndex   map[string]int
	classrooms     []ClassroomEntry
	classroomIndex map[uint]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		studentIndex:   make(map[string]int),
		teacherIndex:   make(map[string]int),
		classroomIndex: make(map[uint]int),
	}
}

// AddStudent registers a student keyed by enrollment id.
func (r *Registry) AddStudent(student grading.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.studentIndex[student.EnrollmentID]; exists {
		return ErrDuplicateStudent
	}
	r.studentIndex[student.EnrollmentID] = len(r.students)
	r.students = append(r.students, student)
	return nil
}

// AddTeacher registers a teacher keyed by national id.
func (r *Registry) AddTeacher(teacher grading.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teacherIndex[teacher.NationalID]; exists {
		return ErrDuplicateTeacher
	}
	r.teacherIndex[teacher.NationalID] = len(r.teachers)
	r.teachers = append(r.teachers, teacher)
	return nil
}

// AddClassroom stores a classroom under id.
func (r *Registry) AddClassroom(id uint, classroom *grading.Classroom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classroomIndex[id]; exists {
		return ErrDuplicateClassroom
	}
	r.classroomIndex[id] = len(r.classrooms)
	r.classrooms = append(r.classrooms, ClassroomEntry{ID: id, Classroom: classroom})
	return nil
}

// FindStudent looks up a student by enrollment id.
func (r *Registry) FindStudent(enrollmentID string) (grading.Student, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.studentIndex[enrollmentID]
	if !ok {
		return grading.Student{}, false
	}
	return r.students[i], true
}

// FindTeacher looks up a teacher by national id.
func (r *Registry) FindTeacher(nationalID string) (grading.Teacher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.teacherIndex[nationalID]
	if !ok {
		return grading.Teacher{}, false
	}
	return r.teachers[i], true
}

// FindClassroom looks up a classroom by id.
func (r *Registry) FindClassroom(id uint) (*grading.Classroom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.classroomIndex[id]
	if !ok {
		return nil, false
	}
	return r.classrooms[i].Classroom, true
}

// Students returns the registered students in registration order.
func (r *Registry) Students() []grading.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grading.Student, len(r.students))
	copy(out, r.students)
	return out
}

// Teachers returns the registered teachers in registration order.
func (r *Registry) Teachers() []grading.Teacher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grading.Teacher, len(r.teachers))
	copy(out, r.teachers)
	return out
}

// Classrooms returns the registered classrooms in registration order.
func (r *Registry) Classrooms() []ClassroomEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ClassroomEntry, len(r.classrooms))
	copy(out, r.classrooms)
	return out
}

func (r *Registry) LenStudents() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students)
}

func (r *Registry) LenTeachers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teachers)
}

func (r *Registry) LenClassrooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classrooms)
}
