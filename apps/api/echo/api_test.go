package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/alert"
	"github.com/tmbastos/escolar/core/calendar"
	"github.com/tmbastos/escolar/core/evaluation"
	"github.com/tmbastos/escolar/core/report"
	dummydb "github.com/tmbastos/escolar/storage/database/dummy"
)

type testDeps struct {
	conf      *core.Config
	server    Server
	calRepo   calendar.Repository
	evalRepo  evaluation.Repository
	directory directoryFixture
}

// directoryFixture exposes the dummy directory's seeding helpers.
type directoryFixture interface {
	report.Directory
	Enroll(ms report.MatrixStudent)
	SetSubjects(schoolID uuid.UUID, academicYear int, names []string)
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type testEmailService struct{}

func (testEmailService) SendMessages(messages ...*core.EmailMessage) {}

func setup(t *testing.T, opts ...func(*ServerDeps)) *testDeps {
	t.Helper()

	conf := &core.Config{
		AppName:   "Escolar",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{JWTExpirationDelta: 10 * time.Minute},
	}

	db, err := dummydb.Open()
	require.NoError(t, err)

	calRepo := dummydb.NewCalendarRepository(db)
	evalRepo := dummydb.NewEvaluationRepository(db)
	directory := dummydb.NewDirectoryRepository(db)

	validate, translator := core.NewValidator()
	evaluation.RegisterValidators(validate, translator)

	deps := ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		CalendarSvc:    calendar.NewService(calRepo),
		EvaluationSvc:  evaluation.NewService(evalRepo),
		Assembler:      report.NewAssembler(evalRepo, testLogger{}),
		Directory:      directory,
		AlertScanner:   alert.NewScanner(evalRepo, testEmailService{}, testLogger{}, conf),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	server := NewServer(deps)

	return &testDeps{
		conf:      conf,
		server:    server,
		calRepo:   calRepo,
		evalRepo:  evalRepo,
		directory: directory,
	}
}

func (d *testDeps) token(t *testing.T, admin bool) string {
	t.Helper()
	claims := NewStaffClaims(d.conf, "Teste", "teste@escola.example", uuid.New().String(), admin)
	token, err := GenerateToken(d.conf, claims)
	require.NoError(t, err)
	return token
}

func (d *testDeps) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	d.server.ServeHTTP(rec, req)
	return rec
}

func mustDay(t *testing.T, s string) calendar.DayDate {
	t.Helper()
	d, err := calendar.ParseDayDate(s)
	require.NoError(t, err)
	return d
}

func TestAPIRequiresToken(t *testing.T) {
	d := setup(t)

	rec := d.do(http.MethodGet, "/v1/calendar/day-info?school_id=x&year=2025&date=2025-03-10", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDayInfoEndpoint(t *testing.T) {
	d := setup(t)
	schoolID := uuid.New()

	_, err := d.calRepo.SaveCalendar(context.Background(), &calendar.Calendar{
		SchoolID:     schoolID,
		AcademicYear: 2025,
		Holidays: []calendar.Event{
			{Date: mustDay(t, "2025-04-21"), Type: calendar.TypeHoliday, Description: "Tiradentes"},
		},
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/calendar/day-info?school_id=%s&year=2025&date=2025-04-21", schoolID)
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Date        string `json:"date"`
		IsSchoolDay bool   `json:"is_school_day"`
		Type        string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-04-21", resp.Date)
	assert.False(t, resp.IsSchoolDay)
	assert.Equal(t, "holiday", resp.Type)
}

func TestSchoolDaysEndpoint(t *testing.T) {
	d := setup(t)
	schoolID := uuid.New()

	// no calendar stored: weekday count over 2025-01-06..2025-01-12 is 5
	path := fmt.Sprintf("/v1/calendar/school-days?school_id=%s&year=2025&from=2025-01-06&to=2025-01-12", schoolID)
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp schoolDaysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Count)
}

func TestSchoolDaysEndpointRejectsInvertedRange(t *testing.T) {
	d := setup(t)
	path := fmt.Sprintf("/v1/calendar/school-days?school_id=%s&year=2025&from=2025-02-01&to=2025-01-01", uuid.New())
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveCalendarRequiresAdmin(t *testing.T) {
	d := setup(t)

	rec := d.do(http.MethodPut, "/v1/calendar", d.token(t, false), calendar.Calendar{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitGradeEndpoint(t *testing.T) {
	d := setup(t)
	value := 8.5

	body := evaluation.NewGrade{
		StudentID:      uuid.New(),
		EnrollmentID:   uuid.New(),
		SubjectID:      uuid.New(),
		AcademicYear:   2025,
		Period:         1,
		Value:          &value,
		EvaluationType: evaluation.TypeNumeric,
	}
	rec := d.do(http.MethodPost, "/v1/grades", d.token(t, false), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var g evaluation.Grade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.True(t, g.Value.Valid)
	assert.Equal(t, 8.5, g.Value.Float64)
	assert.NotEqual(t, uuid.Nil, g.ID)
}

func TestSubmitGradeRejectsBadPeriod(t *testing.T) {
	d := setup(t)
	value := 8.5

	body := evaluation.NewGrade{
		StudentID:      uuid.New(),
		EnrollmentID:   uuid.New(),
		SubjectID:      uuid.New(),
		AcademicYear:   2025,
		Period:         5,
		Value:          &value,
		EvaluationType: evaluation.TypeNumeric,
	}
	rec := d.do(http.MethodPost, "/v1/grades", d.token(t, false), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "period")
}

func TestRecordAttendanceEndpoint(t *testing.T) {
	d := setup(t)

	body := evaluation.NewAttendance{
		StudentID:      uuid.New(),
		EnrollmentID:   uuid.New(),
		AcademicYear:   2025,
		Period:         1,
		TotalClasses:   40,
		PresentClasses: 36,
		AbsentClasses:  4,
	}
	rec := d.do(http.MethodPost, "/v1/attendance", d.token(t, false), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var att evaluation.Attendance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
	assert.Equal(t, 90.0, att.Percentage)
}

func TestStudentRecordEndpoint(t *testing.T) {
	d := setup(t)
	schoolID := uuid.New()
	studentID := uuid.New()
	enrollmentID := uuid.New()

	seedGrade := func(value float64, period int) {
		_, err := d.evalRepo.CreateGrade(context.Background(), evaluation.Grade{
			ID:             uuid.New(),
			StudentID:      studentID,
			EnrollmentID:   enrollmentID,
			SubjectID:      uuid.New(),
			AcademicYear:   2025,
			Period:         period,
			Value:          null.Float64From(value),
			EvaluationType: evaluation.TypeNumeric,
			SubjectName:    "Matemática",
		})
		require.NoError(t, err)
	}
	seedGrade(8, 1)
	seedGrade(6, 2)

	path := fmt.Sprintf("/v1/reports/student/%s?school_id=%s&year=2025&student_id=%s&student_name=Ana",
		enrollmentID, schoolID, studentID)
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record report.StudentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "Ana", record.Student.Name)
	assert.True(t, record.OverallAverage.Valid)
	assert.Equal(t, 7.0, record.OverallAverage.Float64)
	assert.Equal(t, report.StatusApproved, record.Status)
}

func TestClassBulletinCSVEndpoint(t *testing.T) {
	d := setup(t)
	schoolID := uuid.New()
	enrollmentID := uuid.New()

	d.directory.SetSubjects(schoolID, 2025, []string{"Matemática", "Português"})
	d.directory.Enroll(report.MatrixStudent{
		Student:    report.Student{ID: uuid.New(), Name: "Ana Souza", RegistrationNumber: "2025-0001"},
		Enrollment: report.Enrollment{ID: enrollmentID, SchoolID: schoolID, AcademicYear: 2025, ClassName: "5A"},
	})

	_, err := d.evalRepo.CreateGrade(context.Background(), evaluation.Grade{
		ID:             uuid.New(),
		EnrollmentID:   enrollmentID,
		AcademicYear:   2025,
		Period:         1,
		Value:          null.Float64From(9),
		EvaluationType: evaluation.TypeNumeric,
		SubjectName:    "Matemática",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/reports/class/5A/bulletin.csv?school_id=%s&year=2025", schoolID)
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "boletim-5A-2025.csv")
	assert.Contains(t, rec.Body.String(), `"BOLETIM ESCOLAR - TURMA 5A"`)
	assert.Contains(t, rec.Body.String(), `"Ana Souza","2025-0001","9.0","-"`)
}

func TestClassBulletinCSVUnknownClass(t *testing.T) {
	d := setup(t)
	path := fmt.Sprintf("/v1/reports/class/9Z/bulletin.csv?school_id=%s&year=2025", uuid.New())
	rec := d.do(http.MethodGet, path, d.token(t, false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceAlertEndpointRequiresAdmin(t *testing.T) {
	d := setup(t)
	rec := d.do(http.MethodPost, "/v1/alerts/attendance?year=2025", d.token(t, false), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAttendanceAlertEndpoint(t *testing.T) {
	d := setup(t)
	studentID := uuid.New()

	_, err := d.evalRepo.CreateAttendance(context.Background(), evaluation.Attendance{
		ID:           uuid.New(),
		StudentID:    studentID,
		EnrollmentID: uuid.New(),
		AcademicYear: 2025,
		Period:       1,
		TotalClasses: 40,
		Percentage:   50,
	})
	require.NoError(t, err)

	rec := d.do(http.MethodPost, "/v1/alerts/attendance?year=2025&period=1", d.token(t, true), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var flags []alert.Flag
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flags))
	require.Len(t, flags, 1)
	assert.Equal(t, studentID, flags[0].StudentID)
	assert.Equal(t, alert.SeverityCritical, flags[0].Severity)
}

func TestHealthEndpoint(t *testing.T) {
	d := setup(t)

	rec := d.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHealthEndpointSignalsShutdownOnDBFailure(t *testing.T) {
	d := setup(t, func(deps *ServerDeps) {
		deps.DBStatusCheck = func(context.Context) error { return fmt.Errorf("connection refused") }
	})

	rec := d.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	select {
	case <-d.server.ShutdownSignal():
	case <-time.After(time.Second):
		t.Error("expected the failed check to request a shutdown")
	}
}

func TestQueryGradesRequiresFilter(t *testing.T) {
	d := setup(t)

	rec := d.do(http.MethodGet, "/v1/grades", d.token(t, false), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "filter")

	rec = d.do(http.MethodGet, "/v1/attendance", d.token(t, false), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = d.do(http.MethodGet, fmt.Sprintf("/v1/grades?enrollment_id=%s", uuid.New()), d.token(t, false), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAddDescriptiveReportTrimsText(t *testing.T) {
	d := setup(t)

	body := evaluation.NewDescriptiveReport{
		StudentID:    uuid.New(),
		EnrollmentID: uuid.New(),
		AcademicYear: 2025,
		Period:       2,
		ReportText:   "  Aluno participativo, evoluiu na leitura.  ",
		CreatedBy:    uuid.New(),
	}
	rec := d.do(http.MethodPost, "/v1/reports/descriptive", d.token(t, false), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var r evaluation.DescriptiveReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, "Aluno participativo, evoluiu na leitura.", r.ReportText)
}
