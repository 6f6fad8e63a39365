package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/flatfile"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/models"
	"github.com/filipesuhett/academic-system/internal/observability"
	"github.com/filipesuhett/academic-system/internal/registry"
	"github.com/filipesuhett/academic-system/internal/repository"
)

var (
	// ErrStudentExists indicates an enrollment id that is already registered.
	ErrStudentExists = errors.New("student already registered")
	// ErrTeacherExists indicates a national id that is already registered for a teacher.
	ErrTeacherExists = errors.New("teacher already registered")
	// ErrStudentNotFound indicates an enrollment id that is not registered.
	ErrStudentNotFound = errors.New("student not found")
	// ErrTeacherNotFound indicates a teacher national id that is not registered.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrUnsupportedFileType indicates an import upload that is not plain text.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// ClassroomRegisteredSubject is the NATS subject announcing new classrooms.
const ClassroomRegisteredSubject = "classroom.registered"

const maxImportBytes = 1 << 20

// RegistrationService validates and records students, teachers and classrooms.
type RegistrationService interface {
	Bootstrap(ctx context.Context) error
	RegisterStudent(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	RegisterTeacher(ctx context.Context, payload dto.TeacherCreateRequest) (dto.TeacherResponse, error)
	RegisterClassroom(ctx context.Context, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	ImportStudents(ctx context.Context, file io.Reader) (dto.StudentImportResponse, error)
	ListStudents(ctx context.Context) []dto.StudentResponse
	ListTeachers(ctx context.Context) []dto.TeacherResponse
	ListClassrooms(ctx context.Context) []dto.ClassroomResponse
}

// ReportInvalidator drops cached reports after the classroom set changes.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RegistrationDependencies groups the collaborators of the registration service.
type RegistrationDependencies struct {
	Registry   *registry.Registry
	Students   repository.StudentRepository
	Teachers   repository.TeacherRepository
	Classrooms repository.ClassroomRepository
	Files      *flatfile.Store
	Reports    ReportInvalidator
	NATS       *nats.Conn
}

type registrationService struct {
	registry   *registry.Registry
	students   repository.StudentRepository
	teachers   repository.TeacherRepository
	classrooms repository.ClassroomRepository
	files      *flatfile.Store
	reports    ReportInvalidator
	nats       *nats.Conn
	validate   *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

type classroomRegisteredEvent struct {
	EventID      string    `json:"event_id"`
	ClassroomID  uint      `json:"classroom_id"`
	Subject      string    `json:"subject"`
	Year         int       `json:"year"`
	Semester     int       `json:"semester"`
	Teacher      string    `json:"teacher_national_id"`
	Students     int       `json:"students"`
	Exams        int       `json:"exams"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewRegistrationService wires the registration collaborator. Files, Reports and NATS are optional.
func NewRegistrationService(deps RegistrationDependencies, validate *validator.Validate, logger zerolog.Logger) RegistrationService {
	return &registrationService{
		registry:   deps.Registry,
		students:   deps.Students,
		teachers:   deps.Teachers,
		classrooms: deps.Classrooms,
		files:      deps.Files,
		reports:    deps.Reports,
		nats:       deps.NATS,
		validate:   validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "registration_service").Logger(),
		now:        time.Now,
	}
}

// Bootstrap fills the registry from the database and the flat files. Flat file records
// missing from the database are inserted so classrooms can reference them.
func (s *registrationService) Bootstrap(ctx context.Context) error {
	storedStudents, err := s.students.List(ctx)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}
	for _, row := range storedStudents {
		s.addStudentQuietly(studentFromModel(row))
	}

	storedTeachers, err := s.teachers.List(ctx)
	if err != nil {
		return fmt.Errorf("load teachers: %w", err)
	}
	for _, row := range storedTeachers {
		s.addTeacherQuietly(teacherFromModel(row))
	}

	if s.files != nil {
		fileStudents, err := s.files.LoadStudents()
		if err != nil {
			return fmt.Errorf("load %s: %w", flatfile.StudentsFile, err)
		}
		for _, student := range fileStudents {
			if _, exists := s.registry.FindStudent(student.EnrollmentID); exists {
				continue
			}
			row := models.Student{Name: student.Name, NationalID: student.NationalID, EnrollmentID: student.EnrollmentID}
			if err := s.students.Create(ctx, &row); err != nil {
				return fmt.Errorf("sync student %s: %w", student.EnrollmentID, err)
			}
			s.addStudentQuietly(student)
		}

		fileTeachers, err := s.files.LoadTeachers()
		if err != nil {
			return fmt.Errorf("load %s: %w", flatfile.TeachersFile, err)
		}
		for _, teacher := range fileTeachers {
			if _, exists := s.registry.FindTeacher(teacher.NationalID); exists {
				continue
			}
			row := models.Teacher{Name: teacher.Name, NationalID: teacher.NationalID, Salary: teacher.Salary}
			if err := s.teachers.Create(ctx, &row); err != nil {
				return fmt.Errorf("sync teacher %s: %w", teacher.NationalID, err)
			}
			s.addTeacherQuietly(teacher)
		}
	}

	storedClassrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return fmt.Errorf("load classrooms: %w", err)
	}
	for _, row := range storedClassrooms {
		classroom, err := classroomFromModel(row)
		if err != nil {
			return fmt.Errorf("rebuild classroom %d: %w", row.ID, err)
		}
		if err := s.registry.AddClassroom(row.ID, classroom); err != nil {
			return fmt.Errorf("register classroom %d: %w", row.ID, err)
		}
	}

	s.logger.Info().
		Int("students", s.registry.LenStudents()).
		Int("teachers", s.registry.LenTeachers()).
		Int("classrooms", s.registry.LenClassrooms()).
		Msg("registry bootstrapped")

	return nil
}

func (s *registrationService) addStudentQuietly(student grading.Student) {
	if err := s.registry.AddStudent(student); err != nil {
		s.logger.Warn().Err(err).Str("enrollment_id", student.EnrollmentID).Msg("skipping student")
	}
}

func (s *registrationService) addTeacherQuietly(teacher grading.Teacher) {
	if err := s.registry.AddTeacher(teacher); err != nil {
		s.logger.Warn().Err(err).Str("national_id", teacher.NationalID).Msg("skipping teacher")
	}
}

func (s *registrationService) RegisterStudent(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validate.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := grading.Student{
		Name:         s.clean(payload.Name),
		NationalID:   strings.TrimSpace(payload.NationalID),
		EnrollmentID: strings.TrimSpace(payload.EnrollmentID),
	}
	if err := s.storeStudent(ctx, student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *registrationService) storeStudent(ctx context.Context, student grading.Student) error {
	if student.Name == "" {
		return &grading.ValidationError{Field: "name", Message: "name must contain text"}
	}
	if _, exists := s.registry.FindStudent(student.EnrollmentID); exists {
		return ErrStudentExists
	}

	row := models.Student{Name: student.Name, NationalID: student.NationalID, EnrollmentID: student.EnrollmentID}
	if err := s.students.Create(ctx, &row); err != nil {
		return fmt.Errorf("persist student: %w", err)
	}

	if err := s.registry.AddStudent(student); err != nil {
		if errors.Is(err, registry.ErrDuplicateStudent) {
			return ErrStudentExists
		}
		return err
	}

	if s.files != nil {
		if err := s.files.AppendStudent(student); err != nil {
			s.logger.Warn().Err(err).Str("enrollment_id", student.EnrollmentID).Msg("failed to append student record")
		}
	}

	observability.Registrations().WithLabelValues("student").Inc()
	s.logger.Info().Str("enrollment_id", student.EnrollmentID).Msg("student registered")

	return nil
}

func (s *registrationService) RegisterTeacher(ctx context.Context, payload dto.TeacherCreateRequest) (dto.TeacherResponse, error) {
	if err := s.validate.Struct(payload); err != nil {
		return dto.TeacherResponse{}, err
	}

	teacher := grading.Teacher{
		Name:       s.clean(payload.Name),
		NationalID: strings.TrimSpace(payload.NationalID),
		Salary:     payload.Salary,
	}
	if teacher.Name == "" {
		return dto.TeacherResponse{}, &grading.ValidationError{Field: "name", Message: "name must contain text"}
	}
	if _, exists := s.registry.FindTeacher(teacher.NationalID); exists {
		return dto.TeacherResponse{}, ErrTeacherExists
	}

	row := models.Teacher{Name: teacher.Name, NationalID: teacher.NationalID, Salary: teacher.Salary}
	if err := s.teachers.Create(ctx, &row); err != nil {
		return dto.TeacherResponse{}, fmt.Errorf("persist teacher: %w", err)
	}

	if err := s.registry.AddTeacher(teacher); err != nil {
		if errors.Is(err, registry.ErrDuplicateTeacher) {
			return dto.TeacherResponse{}, ErrTeacherExists
		}
		return dto.TeacherResponse{}, err
	}

	if s.files != nil {
		if err := s.files.AppendTeacher(teacher); err != nil {
			s.logger.Warn().Err(err).Str("national_id", teacher.NationalID).Msg("failed to append teacher record")
		}
	}

	observability.Registrations().WithLabelValues("teacher").Inc()
	s.logger.Info().Str("national_id", teacher.NationalID).Msg("teacher registered")

	return dto.NewTeacherResponse(teacher), nil
}

func (s *registrationService) RegisterClassroom(ctx context.Context, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	tracer := otel.Tracer("github.com/filipesuhett/academic-system/internal/service/registration")
	ctx, span := tracer.Start(ctx, "classroom.register")
	span.SetAttributes(
		attribute.String("classroom.subject", payload.Subject),
		attribute.Int("classroom.students", len(payload.Students)),
		attribute.Int("classroom.exams", len(payload.Exams)),
	)
	defer span.End()

	fail := func(err error, status string) (dto.ClassroomResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.ClassroomResponse{}, err
	}

	if err := s.validate.Struct(payload); err != nil {
		return fail(err, "validation_failed")
	}

	teacher, ok := s.registry.FindTeacher(strings.TrimSpace(payload.TeacherNationalID))
	if !ok {
		return fail(ErrTeacherNotFound, "teacher_not_found")
	}

	classroom, err := buildClassroom(payload, s.clean(payload.Subject), teacher, s.registry.FindStudent)
	if err != nil {
		return fail(err, "classroom_rejected")
	}

	teacherRow, err := s.teachers.GetByNationalID(ctx, teacher.NationalID)
	if err != nil {
		return fail(fmt.Errorf("load teacher: %w", err), "teacher_lookup_failed")
	}

	roster := classroom.Roster()
	enrollmentIDs := make([]string, 0, len(roster))
	for _, student := range roster {
		enrollmentIDs = append(enrollmentIDs, student.EnrollmentID)
	}
	studentRows, err := s.students.ListByEnrollmentIDs(ctx, enrollmentIDs)
	if err != nil {
		return fail(fmt.Errorf("load students: %w", err), "student_lookup_failed")
	}
	studentIDs := make(map[string]uint, len(studentRows))
	for _, row := range studentRows {
		studentIDs[row.EnrollmentID] = row.ID
	}

	model, err := classroomToModel(classroom, teacherRow.ID, studentIDs)
	if err != nil {
		return fail(err, "classroom_mapping_failed")
	}
	if err := s.classrooms.Create(ctx, &model); err != nil {
		return fail(fmt.Errorf("persist classroom: %w", err), "classroom_persist_failed")
	}

	if err := s.registry.AddClassroom(model.ID, classroom); err != nil {
		return fail(err, "classroom_register_failed")
	}

	if s.reports != nil {
		if err := s.reports.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate report cache")
		}
	}

	s.publishClassroom(model.ID, classroom)

	observability.Registrations().WithLabelValues("classroom").Inc()
	span.SetAttributes(attribute.Int64("classroom.id", int64(model.ID)))
	s.logger.Info().
		Uint("classroom_id", model.ID).
		Str("subject", classroom.Subject()).
		Int("students", len(roster)).
		Msg("classroom registered")

	return dto.NewClassroomResponse(model.ID, classroom), nil
}

func (s *registrationService) publishClassroom(id uint, classroom *grading.Classroom) {
	if s.nats == nil {
		return
	}

	event := classroomRegisteredEvent{
		EventID:      uuid.NewString(),
		ClassroomID:  id,
		Subject:      classroom.Subject(),
		Year:         classroom.Year(),
		Semester:     classroom.Semester(),
		Teacher:      classroom.Teacher().NationalID,
		Students:     len(classroom.Roster()),
		Exams:        len(classroom.Exams()),
		RegisteredAt: s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode classroom event")
		return
	}
	if err := s.nats.Publish(ClassroomRegisteredSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("classroom_id", id).Msg("failed to publish classroom event")
	}
}

// ImportStudents registers every new record of an uploaded students.txt. Already
// registered enrollment ids are reported as skipped.
func (s *registrationService) ImportStudents(ctx context.Context, file io.Reader) (dto.StudentImportResponse, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		return dto.StudentImportResponse{}, fmt.Errorf("read import: %w", err)
	}

	if !isPlainText(mimetype.Detect(data)) {
		return dto.StudentImportResponse{}, ErrUnsupportedFileType
	}

	students, err := flatfile.ReadStudents(bytes.NewReader(data))
	if err != nil {
		return dto.StudentImportResponse{}, err
	}

	response := dto.StudentImportResponse{Imported: []dto.StudentResponse{}, Skipped: []string{}}
	for _, student := range students {
		student.Name = s.clean(student.Name)
		if err := s.storeStudent(ctx, student); err != nil {
			if errors.Is(err, ErrStudentExists) {
				response.Skipped = append(response.Skipped, student.EnrollmentID)
				continue
			}
			return response, err
		}
		response.Imported = append(response.Imported, dto.NewStudentResponse(student))
	}

	s.logger.Info().Int("imported", len(response.Imported)).Int("skipped", len(response.Skipped)).Msg("students imported")

	return response, nil
}

func isPlainText(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func (s *registrationService) ListStudents(_ context.Context) []dto.StudentResponse {
	return dto.NewStudentResponseSlice(s.registry.Students())
}

func (s *registrationService) ListTeachers(_ context.Context) []dto.TeacherResponse {
	return dto.NewTeacherResponseSlice(s.registry.Teachers())
}

func (s *registrationService) ListClassrooms(_ context.Context) []dto.ClassroomResponse {
	entries := s.registry.Classrooms()
	responses := make([]dto.ClassroomResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewClassroomResponse(entry.ID, entry.Classroom))
	}
	return responses
}

func (s *registrationService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}
