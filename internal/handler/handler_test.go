package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/filipesuhett/academic-system/internal/config"
	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/handler"
	"github.com/filipesuhett/academic-system/internal/registry"
	"github.com/filipesuhett/academic-system/internal/service"
)

type mockRegistrationService struct {
	studentErr    error
	teacherErr    error
	classroomErr  error
	importErr     error
	lastStudent   dto.StudentCreateRequest
	lastClassroom dto.ClassroomCreateRequest
	imported      string
	classroomHits int
}

func (m *mockRegistrationService) Bootstrap(context.Context) error { return nil }

func (m *mockRegistrationService) RegisterStudent(_ context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	m.lastStudent = payload
	if m.studentErr != nil {
		return dto.StudentResponse{}, m.studentErr
	}
	return dto.StudentResponse{Name: payload.Name, NationalID: payload.NationalID, EnrollmentID: payload.EnrollmentID}, nil
}

func (m *mockRegistrationService) RegisterTeacher(_ context.Context, payload dto.TeacherCreateRequest) (dto.TeacherResponse, error) {
	if m.teacherErr != nil {
		return dto.TeacherResponse{}, m.teacherErr
	}
	return dto.TeacherResponse{Name: payload.Name, NationalID: payload.NationalID, Salary: payload.Salary}, nil
}

func (m *mockRegistrationService) RegisterClassroom(_ context.Context, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	m.classroomHits++
	m.lastClassroom = payload
	if m.classroomErr != nil {
		return dto.ClassroomResponse{}, m.classroomErr
	}
	return dto.ClassroomResponse{ID: 1, Subject: payload.Subject, Year: payload.Year, Semester: payload.Semester}, nil
}

func (m *mockRegistrationService) ImportStudents(_ context.Context, file io.Reader) (dto.StudentImportResponse, error) {
	data, _ := io.ReadAll(file)
	m.imported = string(data)
	if m.importErr != nil {
		return dto.StudentImportResponse{}, m.importErr
	}
	return dto.StudentImportResponse{Imported: []dto.StudentResponse{{EnrollmentID: "M1"}}, Skipped: []string{}}, nil
}

func (m *mockRegistrationService) ListStudents(context.Context) []dto.StudentResponse {
	return []dto.StudentResponse{{Name: "Ana Souza", NationalID: "101", EnrollmentID: "M1"}}
}

func (m *mockRegistrationService) ListTeachers(context.Context) []dto.TeacherResponse {
	return []dto.TeacherResponse{{Name: "Marcos Lima", NationalID: "900", Salary: 5200}}
}

func (m *mockRegistrationService) ListClassrooms(context.Context) []dto.ClassroomResponse {
	return []dto.ClassroomResponse{{ID: 1, Subject: "Algorithms"}}
}

type mockReportService struct {
	lastPolicy grading.Policy
	lastID     uint
	err        error
}

func (m *mockReportService) ResolvePolicy(value string) (grading.Policy, error) {
	return grading.ParsePolicy(value, grading.PolicySum)
}

func (m *mockReportService) Report(_ context.Context, policy grading.Policy) (dto.GradeReportResponse, error) {
	m.lastPolicy = policy
	if m.err != nil {
		return dto.GradeReportResponse{}, m.err
	}
	return dto.GradeReportResponse{Policy: policy.String(), Students: 3, Median: 14}, nil
}

func (m *mockReportService) ClassroomGrades(_ context.Context, id uint, policy grading.Policy) (dto.ClassroomGradesResponse, error) {
	m.lastID = id
	m.lastPolicy = policy
	if m.err != nil {
		return dto.ClassroomGradesResponse{}, m.err
	}
	return dto.ClassroomGradesResponse{ID: id, Policy: policy.String(), Median: 14}, nil
}

func (m *mockReportService) Invalidate(context.Context) error { return nil }

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestApp(registrations *mockRegistrationService, reports *mockReportService) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	api := app.Group("/api/v1")
	handler.NewStudentHandler(registrations, logger).Register(api.Group("/students"))
	handler.NewTeacherHandler(registrations, logger).Register(api.Group("/teachers"))
	handler.NewClassroomHandler(registrations, reports, logger).Register(api.Group("/classrooms"))
	handler.NewReportHandler(reports, logger).Register(api.Group("/reports"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var payload envelope
	decodeResponse(t, resp, &payload)
	return resp, payload
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

const classroomBody = `{
	"subject": "Algorithms", "year": 2024, "semester": 1, "teacher_national_id": "900",
	"students": ["M1", "M2"],
	"exams": [
		{"kind": "test", "name": "Midterm", "date": "5/3/2024", "max_value": 10, "questions": 2,
		 "results": [{"enrollment_id": "M1", "scores": [4, 5]}, {"enrollment_id": "M2", "scores": [3, 3]}]},
		{"kind": "assignment", "name": "Sorting", "date": "10/3/2024", "max_value": 10, "expected_runtime": 100,
		 "results": [{"enrollment_id": "M1", "grade": 10, "submitted_on": "9/3/2024", "runtime": 80},
		             {"enrollment_id": "M2", "grade": 8, "submitted_on": "12/3/2024", "runtime": 50}]}
	]
}`

func TestStudentHandler_CreateSuccess(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newTestApp(svc, &mockReportService{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students", `{"name":"Ana Souza","national_id":"101","enrollment_id":"M1"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)
	require.Equal(t, "student registered", body.Message)
	require.Equal(t, "M1", svc.lastStudent.EnrollmentID)
}

func TestStudentHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrStudentExists, fiber.StatusConflict},
		{&grading.ValidationError{Field: "name", Message: "name must contain text"}, fiber.StatusBadRequest},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := newTestApp(&mockRegistrationService{studentErr: tc.err}, &mockReportService{})
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students", `{"name":"Ana Souza","national_id":"101","enrollment_id":"M1"}`)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		require.False(t, body.Success)
	}
}

func TestStudentHandler_ValidationErrorsUseJSONNames(t *testing.T) {
	err := dto.NewValidator().Struct(dto.StudentCreateRequest{Name: "Ana Souza", NationalID: "101"})
	app := newTestApp(&mockRegistrationService{studentErr: err}, &mockReportService{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/students", `{"name":"Ana Souza","national_id":"101"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "required", body.Errors["enrollment_id"])
}

func TestStudentHandler_InvalidBody(t *testing.T) {
	app := newTestApp(&mockRegistrationService{}, &mockReportService{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/students", `{"name":`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandler_List(t *testing.T) {
	app := newTestApp(&mockRegistrationService{}, &mockReportService{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/students", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var students []dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &students))
	require.Equal(t, "M1", students[0].EnrollmentID)
}

func multipartUpload(t *testing.T, field, name, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestStudentHandler_Import(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newTestApp(svc, &mockReportService{})

	resp, err := app.Test(multipartUpload(t, "file", "students.txt", "Ana Souza;101;M1\n"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Ana Souza;101;M1\n", svc.imported)
}

func TestStudentHandler_ImportErrors(t *testing.T) {
	app := newTestApp(&mockRegistrationService{importErr: service.ErrUnsupportedFileType}, &mockReportService{})
	resp, err := app.Test(multipartUpload(t, "file", "photo.png", "binary"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	resp, err = app.Test(multipartUpload(t, "other", "students.txt", "x"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTeacherHandler_CreateConflict(t *testing.T) {
	app := newTestApp(&mockRegistrationService{teacherErr: service.ErrTeacherExists}, &mockReportService{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/teachers", `{"name":"Marcos Lima","national_id":"900","salary":5200}`)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, service.ErrTeacherExists.Error(), body.Message)
}

func TestClassroomHandler_CreateSuccess(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newTestApp(svc, &mockReportService{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/classrooms", classroomBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)
	require.Len(t, svc.lastClassroom.Exams, 2)
	require.Equal(t, 100, svc.lastClassroom.Exams[1].ExpectedRuntime)
	require.NotNil(t, svc.lastClassroom.Exams[1].Results[0].Grade)
}

func TestClassroomHandler_SchemaRejectsBeforeService(t *testing.T) {
	svc := &mockRegistrationService{}
	app := newTestApp(svc, &mockReportService{})

	doc := `{"subject":"Algorithms","year":2024,"semester":1,"teacher_national_id":"900","students":["M1"],
		"exams":[{"kind":"assignment","name":"Sorting","date":"10/3/2024","max_value":10,"expected_runtime":1,
		"results":[{"enrollment_id":"M1","scores":[1]}]}]}`
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/classrooms", doc)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, body.Success)
	require.Zero(t, svc.classroomHits)
}

func TestClassroomHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&grading.EmptyClassroomError{Subject: "Algorithms", Reason: "no students"}, fiber.StatusUnprocessableEntity},
		{service.ErrTeacherNotFound, fiber.StatusNotFound},
		{fmt.Errorf("exam 1: %w", service.ErrStudentNotFound), fiber.StatusNotFound},
		{&grading.ValidationError{Field: "student", Message: "missing result"}, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		app := newTestApp(&mockRegistrationService{classroomErr: tc.err}, &mockReportService{})
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/classrooms", classroomBody)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}

func TestClassroomHandler_Grades(t *testing.T) {
	reports := &mockReportService{}
	app := newTestApp(&mockRegistrationService{}, reports)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/classrooms/3/grades?policy=weighted", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), reports.lastID)
	require.Equal(t, grading.PolicyWeighted, reports.lastPolicy)

	var grades dto.ClassroomGradesResponse
	require.NoError(t, json.Unmarshal(body.Data, &grades))
	require.Equal(t, "WEIGHTED", grades.Policy)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/classrooms/abc/grades", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/classrooms/3/grades?policy=median", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestClassroomHandler_GradesNotFound(t *testing.T) {
	app := newTestApp(&mockRegistrationService{}, &mockReportService{err: service.ErrClassroomNotFound})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/classrooms/9/grades", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestReportHandler_DefaultsPolicy(t *testing.T) {
	reports := &mockReportService{}
	app := newTestApp(&mockRegistrationService{}, reports)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/reports/grades", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, grading.PolicySum, reports.lastPolicy)

	var report dto.GradeReportResponse
	require.NoError(t, json.Unmarshal(body.Data, &report))
	require.Equal(t, 3, report.Students)
	require.InDelta(t, 14.0, report.Median, 1e-9)
}

func TestHealthCheckReportsRegistrySizes(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.AddStudent(grading.Student{Name: "Ana Souza", NationalID: "101", EnrollmentID: "M1"}))

	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "Academic System", GradingPolicy: grading.PolicySum}, reg))

	resp, body := doJSON(t, app, http.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(body.Data, &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.Students)
	require.Equal(t, "SUM", health.GradingPolicy)
}
