package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/flatfile"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/models"
	"github.com/filipesuhett/academic-system/internal/registry"
	"github.com/filipesuhett/academic-system/internal/repository"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type registrationFixture struct {
	db       *gorm.DB
	dir      string
	registry *registry.Registry
	reports  *countingInvalidator
	service  RegistrationService
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newRegistrationFixture(t *testing.T, db *gorm.DB, dir string) registrationFixture {
	t.Helper()

	reg := registry.New()
	reports := &countingInvalidator{}
	svc := NewRegistrationService(RegistrationDependencies{
		Registry:   reg,
		Students:   repository.NewStudentRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Classrooms: repository.NewClassroomRepository(db),
		Files:      flatfile.NewStore(dir),
		Reports:    reports,
	}, dto.NewValidator(), zerolog.Nop())

	return registrationFixture{db: db, dir: dir, registry: reg, reports: reports, service: svc}
}

func seedPeople(t *testing.T, fx registrationFixture) {
	t.Helper()
	ctx := context.Background()

	_, err := fx.service.RegisterTeacher(ctx, dto.TeacherCreateRequest{Name: "Marcos Lima", NationalID: "900", Salary: 5200})
	require.NoError(t, err)
	_, err = fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: "Ana Souza", NationalID: "101", EnrollmentID: "M1"})
	require.NoError(t, err)
	_, err = fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: "Bruno Alves", NationalID: "102", EnrollmentID: "M2"})
	require.NoError(t, err)
}

func floatPtr(v float64) *float64 { return &v }

// Ana: test 9, assignment 10 on time within runtime (+2). Bruno: test 6, assignment 8 late (x0.8).
func classroomRequest() dto.ClassroomCreateRequest {
	return dto.ClassroomCreateRequest{
		Subject:           "Algorithms",
		Year:              2024,
		Semester:          1,
		TeacherNationalID: "900",
		Students:          []string{"M1", "M2"},
		Exams: []dto.ExamRequest{
			{
				Kind:      "test",
				Name:      "Midterm",
				Date:      "5/3/2024",
				MaxValue:  10,
				Questions: 2,
				Results: []dto.ExamResultRequest{
					{EnrollmentID: "M1", Scores: []float64{4, 5}},
					{EnrollmentID: "M2", Scores: []float64{3, 3}},
				},
			},
			{
				Kind:            "assignment",
				Name:            "Sorting",
				Date:            "10/3/2024",
				MaxValue:        10,
				ExpectedRuntime: 100,
				Results: []dto.ExamResultRequest{
					{EnrollmentID: "M1", Grade: floatPtr(10), SubmittedOn: "9/3/2024", Runtime: 80},
					{EnrollmentID: "M2", Grade: floatPtr(8), SubmittedOn: "12/3/2024", Runtime: 50},
				},
			},
		},
	}
}

func TestRegisterStudentPersistsEverywhere(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	ctx := context.Background()

	resp, err := fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: " <b>Ana</b> Souza ", NationalID: "101", EnrollmentID: "M1"})
	require.NoError(t, err)
	require.Equal(t, "Ana Souza", resp.Name)

	student, ok := fx.registry.FindStudent("M1")
	require.True(t, ok)
	require.Equal(t, "Ana Souza", student.Name)

	row, err := repository.NewStudentRepository(fx.db).GetByEnrollmentID(ctx, "M1")
	require.NoError(t, err)
	require.Equal(t, "101", row.NationalID)

	content, err := os.ReadFile(filepath.Join(fx.dir, flatfile.StudentsFile))
	require.NoError(t, err)
	require.Equal(t, "Ana Souza;101;M1\n", string(content))

	_, err = fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: "Another", NationalID: "999", EnrollmentID: "M1"})
	require.ErrorIs(t, err, ErrStudentExists)
	require.Len(t, fx.service.ListStudents(ctx), 1)
}

func TestRegisterStudentValidatesPayload(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())

	_, err := fx.service.RegisterStudent(context.Background(), dto.StudentCreateRequest{Name: "A", EnrollmentID: "M1"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	require.Zero(t, fx.registry.LenStudents())
}

func TestRegisterStudentRejectsSeparatorInIdentifiers(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	ctx := context.Background()

	_, err := fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: "Ana Souza", NationalID: "101", EnrollmentID: "M1;M2"})
	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	_, err = fx.service.RegisterTeacher(ctx, dto.TeacherCreateRequest{Name: "Marcos Lima", NationalID: "9;00", Salary: 5200})
	require.True(t, errors.As(err, &validationErrors))

	restarted := newRegistrationFixture(t, fx.db, fx.dir)
	require.NoError(t, restarted.service.Bootstrap(ctx))
	require.Zero(t, restarted.registry.LenStudents())
	require.Zero(t, restarted.registry.LenTeachers())
}

func TestRegisterStudentRejectsMarkupOnlyName(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())

	_, err := fx.service.RegisterStudent(context.Background(), dto.StudentCreateRequest{Name: "<script></script>", NationalID: "1", EnrollmentID: "M1"})
	require.ErrorIs(t, err, grading.ErrValidation)
}

func TestRegisterTeacherRejectsDuplicates(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	ctx := context.Background()

	_, err := fx.service.RegisterTeacher(ctx, dto.TeacherCreateRequest{Name: "Marcos Lima", NationalID: "900", Salary: 5200})
	require.NoError(t, err)

	_, err = fx.service.RegisterTeacher(ctx, dto.TeacherCreateRequest{Name: "Marcos Lima", NationalID: "900", Salary: 1})
	require.ErrorIs(t, err, ErrTeacherExists)

	teachers := fx.service.ListTeachers(ctx)
	require.Len(t, teachers, 1)
	require.Equal(t, 5200.0, teachers[0].Salary)

	content, err := os.ReadFile(filepath.Join(fx.dir, flatfile.TeachersFile))
	require.NoError(t, err)
	require.Equal(t, "Marcos Lima;900;5200\n", string(content))
}

func TestRegisterClassroomPersistsAndGrades(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	seedPeople(t, fx)
	ctx := context.Background()

	resp, err := fx.service.RegisterClassroom(ctx, classroomRequest())
	require.NoError(t, err)
	require.NotZero(t, resp.ID)
	require.Equal(t, "Algorithms", resp.Subject)
	require.Len(t, resp.Students, 2)
	require.Len(t, resp.Exams, 2)
	require.Equal(t, grading.ExamKindAssignment, resp.Exams[1].Kind)
	require.Equal(t, 1, fx.reports.calls)

	classroom, ok := fx.registry.FindClassroom(resp.ID)
	require.True(t, ok)

	ana, err := classroom.FinalGrade("M1", grading.PolicySum)
	require.NoError(t, err)
	require.InDelta(t, 21.0, ana, 1e-9)

	bruno, err := classroom.FinalGrade("M2", grading.PolicySum)
	require.NoError(t, err)
	require.InDelta(t, 12.4, bruno, 1e-9)

	stored, err := repository.NewClassroomRepository(fx.db).GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Exams, 2)
	require.Equal(t, []float64{4, 5}, stored.Exams[0].Results[0].ScoreList())
	require.Equal(t, 12, stored.Exams[1].Results[1].SubmittedDay)

	require.Len(t, fx.service.ListClassrooms(ctx), 1)
}

func TestRegisterClassroomUnknownTeacher(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	seedPeople(t, fx)

	req := classroomRequest()
	req.TeacherNationalID = "404"

	_, err := fx.service.RegisterClassroom(context.Background(), req)
	require.ErrorIs(t, err, ErrTeacherNotFound)
}

func TestRegisterClassroomUnknownStudent(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	seedPeople(t, fx)

	req := classroomRequest()
	req.Students = append(req.Students, "M9")

	_, err := fx.service.RegisterClassroom(context.Background(), req)
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.Zero(t, fx.registry.LenClassrooms())
}

func TestRegisterClassroomWithoutStudentsIsEmpty(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	seedPeople(t, fx)

	req := classroomRequest()
	req.Students = nil

	_, err := fx.service.RegisterClassroom(context.Background(), req)

	var empty *grading.EmptyClassroomError
	require.True(t, errors.As(err, &empty))
	require.Zero(t, fx.reports.calls)
}

func TestRegisterClassroomRejectsMissingResult(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	seedPeople(t, fx)

	req := classroomRequest()
	req.Exams[0].Results = req.Exams[0].Results[:1]

	_, err := fx.service.RegisterClassroom(context.Background(), req)
	require.ErrorIs(t, err, grading.ErrValidation)
}

func TestBootstrapRestoresRegistry(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()

	first := newRegistrationFixture(t, db, dir)
	seedPeople(t, first)
	created, err := first.service.RegisterClassroom(context.Background(), classroomRequest())
	require.NoError(t, err)

	second := newRegistrationFixture(t, db, dir)
	require.NoError(t, second.service.Bootstrap(context.Background()))

	require.Equal(t, 2, second.registry.LenStudents())
	require.Equal(t, 1, second.registry.LenTeachers())
	require.Equal(t, 1, second.registry.LenClassrooms())

	classroom, ok := second.registry.FindClassroom(created.ID)
	require.True(t, ok)

	summary, err := classroom.Summary(grading.PolicyWeighted)
	require.NoError(t, err)
	require.InDelta(t, 105.0, summary.Grades[0].FinalGrade, 1e-9)
	require.InDelta(t, 62.0, summary.Grades[1].FinalGrade, 1e-9)
}

func TestBootstrapSyncsFlatFileRecords(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, flatfile.StudentsFile), []byte("Carla Dias;103;M3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, flatfile.TeachersFile), []byte("Rita Melo;901;4100.5\n"), 0o644))

	fx := newRegistrationFixture(t, db, dir)
	require.NoError(t, fx.service.Bootstrap(context.Background()))

	_, ok := fx.registry.FindStudent("M3")
	require.True(t, ok)
	teacher, ok := fx.registry.FindTeacher("901")
	require.True(t, ok)
	require.Equal(t, 4100.5, teacher.Salary)

	row, err := repository.NewStudentRepository(db).GetByEnrollmentID(context.Background(), "M3")
	require.NoError(t, err)
	require.Equal(t, "Carla Dias", row.Name)
}

func TestImportStudentsSkipsKnownRecords(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())
	ctx := context.Background()

	_, err := fx.service.RegisterStudent(ctx, dto.StudentCreateRequest{Name: "Ana Souza", NationalID: "101", EnrollmentID: "M1"})
	require.NoError(t, err)

	upload := strings.NewReader("Ana Souza;101;M1\nBruno Alves;102;M2\n\nCarla Dias;103;M3\n")
	resp, err := fx.service.ImportStudents(ctx, upload)
	require.NoError(t, err)
	require.Equal(t, []string{"M1"}, resp.Skipped)
	require.Len(t, resp.Imported, 2)
	require.Equal(t, "M3", resp.Imported[1].EnrollmentID)
	require.Equal(t, 3, fx.registry.LenStudents())
}

func TestImportStudentsRejectsBinaryUpload(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	_, err := fx.service.ImportStudents(context.Background(), strings.NewReader(string(png)))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestImportStudentsRejectsMalformedLines(t *testing.T) {
	fx := newRegistrationFixture(t, openTestDB(t), t.TempDir())

	_, err := fx.service.ImportStudents(context.Background(), strings.NewReader("Ana Souza;101\n"))
	require.ErrorIs(t, err, flatfile.ErrMalformedRecord)
}
