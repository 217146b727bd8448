package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorhub/config"
	"tutorhub/database/dbtest"
	"tutorhub/middleware"
	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"
	chatService "tutorhub/services/chat"
	enrollmentService "tutorhub/services/enrollment"
	gamificationService "tutorhub/services/gamification"
	reportingService "tutorhub/services/reporting"
	"tutorhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeRelay struct {
	err  error
	sent []utils.ContactForm
}

func (f *fakeRelay) Send(_ context.Context, form utils.ContactForm) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, form)
	return nil
}

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	relay *fakeRelay
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := &config.Config{
		CorsOrigins:     "*",
		JWTKey:          "test-secret",
		SessionTTLHours: 1,
		SaltRound:       bcrypt.MinCost,
		TutorCapacity:   enrollmentService.DefaultTutorCapacity,
		MetricsEnabled:  true,
		PublicRateLimit: 1000,
	}
	for _, fn := range tweak {
		fn(cfg)
	}
	config.AppConfig = cfg

	db := dbtest.Open(t)
	ledger := gamificationService.NewLedger(db, nil)

	enrollments := enrollmentService.New(db, cfg.TutorCapacity)
	enrollments.Points = ledger
	enrollments.HashPassword = enrollmentService.BcryptHash(bcrypt.MinCost)

	chats := chatService.New(db)
	chats.Points = ledger

	relay := &fakeRelay{}
	app := NewApp(cfg, Deps{
		DB:         db,
		Enrollment: enrollments,
		Chat:       chats,
		Ledger:     ledger,
		Reporting:  reportingService.New(db, cfg.TutorCapacity),
		Relay:      relay,
	})
	return &testEnv{app: app, db: db, relay: relay}
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, _, err := middleware.GenerateJWT(user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	resp := e.request(t, method, path, token, body)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newEnv(t)

	status, body := env.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Status)

	status, body = env.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Status)
}

func TestSignupLoginSession(t *testing.T) {
	env := newEnv(t)
	creds := fiber.Map{"name": "Ada Lovelace", "email": "Ada@Example.com", "password": "correct-horse"}

	status, body := env.call(t, http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, status, body.Message)
	var user models.User
	decode(t, body, &user)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotContains(t, string(body.Data), "correct-horse")

	status, body = env.call(t, http.MethodPost, "/auth/signup", "", creds)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email is already registered!", body.Message)

	status, _ = env.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	resp := env.request(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "ada@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	// The cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session.Value})
	me, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, me.StatusCode)

	var tracked int64
	require.NoError(t, env.db.Model(&models.LoginTracking{}).Where("user_id = ?", user.ID).Count(&tracked).Error)
	assert.Equal(t, int64(1), tracked)

	status, _ = env.call(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	logout := env.request(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, logout.StatusCode)
	assert.Contains(t, logout.Header.Get("Set-Cookie"), middleware.SessionCookie+"=;")
}

func TestAccountSelfService(t *testing.T) {
	env := newEnv(t)
	status, body := env.call(t, http.MethodPost, "/auth/signup", "", fiber.Map{"name": "Cy", "email": "cy@example.com", "password": "first-password"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var user models.User
	decode(t, body, &user)
	token := tokenFor(t, user)

	raw, _ := json.Marshal(fiber.Map{"email": "cy@example.com", "password": "first-password"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	req.Header.Set("User-Agent", "tutorhub-test")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, body = env.call(t, http.MethodGet, "/auth/login/history", token, nil)
	require.Equal(t, http.StatusOK, status, body.Message)
	var history struct {
		History []models.LoginTracking `json:"history"`
	}
	decode(t, body, &history)
	require.Len(t, history.History, 1)
	assert.Equal(t, "203.0.113.9", history.History[0].IPAddress)
	assert.Equal(t, "tutorhub-test", history.History[0].UserAgent)
	assert.Equal(t, models.RoleStudent, history.History[0].Role)

	status, body = env.call(t, http.MethodPut, "/auth/me", token, fiber.Map{"bio": "Likes proofs"})
	require.Equal(t, http.StatusOK, status, body.Message)
	var updated models.User
	require.NoError(t, env.db.First(&updated, user.ID).Error)
	assert.Equal(t, "Likes proofs", updated.Bio)

	status, _ = env.call(t, http.MethodPut, "/auth/change/password", token, fiber.Map{"current_password": "not-it", "new_password": "second-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.call(t, http.MethodPut, "/auth/change/password", token, fiber.Map{"current_password": "first-password", "new_password": "second-password"})
	require.Equal(t, http.StatusOK, status, body.Message)

	status, _ = env.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "cy@example.com", "password": "second-password"})
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginBlocksAfterRepeatedFailures(t *testing.T) {
	env := newEnv(t)
	status, _ := env.call(t, http.MethodPost, "/auth/signup", "", fiber.Map{"name": "Bob", "email": "bob@example.com", "password": "right-password"})
	require.Equal(t, http.StatusCreated, status)

	for i := 0; i < 3; i++ {
		status, _ = env.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "bob@example.com", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, body := env.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "bob@example.com", "password": "right-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body.Message, "temporarily blocked")
}

func TestRoleGates(t *testing.T) {
	env := newEnv(t)
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	manager := dbtest.User(t, env.db, models.RoleManager, "manager")

	status, _ := env.call(t, http.MethodGet, "/admin/enrollment-requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.call(t, http.MethodGet, "/admin/enrollment-requests", tokenFor(t, student), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(t, http.MethodGet, "/admin/enrollment-requests", tokenFor(t, manager), nil)
	assert.Equal(t, http.StatusOK, status)

	// Managers process enrollments but do not manage accounts
	status, _ = env.call(t, http.MethodGet, "/admin/users", tokenFor(t, manager), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestEnrollmentWorkflowOverHTTP(t *testing.T) {
	env := newEnv(t)
	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	course := dbtest.Course(t, env.db, tutor.ID, "Algebra", 60000)

	status, body := env.call(t, http.MethodPost, "/enrollment-requests", "", fiber.Map{
		"course_id":         course.ID,
		"name":              "Grace Student",
		"email":             "grace@example.com",
		"phone":             "+15550123",
		"preferred_contact": "email",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var request enrollmentModels.EnrollmentRequest
	decode(t, body, &request)
	assert.Equal(t, enrollmentModels.RequestPending, request.Status)

	status, body = env.call(t, http.MethodGet, "/admin/enrollment-requests?status=PENDING", tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "grace@example.com")

	approvePath := fmt.Sprintf("/admin/enrollment-requests/%d/approve", request.ID)
	status, body = env.call(t, http.MethodPost, approvePath, tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, status, body.Message)
	var result enrollmentService.Result
	decode(t, body, &result)
	assert.Equal(t, enrollmentModels.StatusActive, result.Enrollment.Status)
	assert.Equal(t, tutor.ID, result.Enrollment.TutorID)
	assert.Equal(t, int64(60000), result.Payment.Amount)
	assert.Equal(t, enrollmentModels.PaymentPaid, result.Payment.Status)

	status, body = env.call(t, http.MethodPost, approvePath, tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Enrollment request already processed!", body.Message)

	studentToken := tokenFor(t, result.Student)
	status, body = env.call(t, http.MethodGet, "/student/enrollments", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Enrollments []enrollmentService.EnrollmentView `json:"enrollments"`
		Pagination  map[string]interface{}             `json:"pagination"`
	}
	decode(t, body, &page)
	require.Len(t, page.Enrollments, 1)
	assert.Equal(t, "Algebra", page.Enrollments[0].CourseTitle)

	status, body = env.call(t, http.MethodGet, "/me/points", studentToken, nil)
	require.Equal(t, http.StatusOK, status)
	var points struct {
		Total int64 `json:"total"`
	}
	decode(t, body, &points)
	assert.Equal(t, gamificationService.EnrollmentPoints, points.Total)

	status, body = env.call(t, http.MethodGet, "/tutor/enrollments", tokenFor(t, tutor), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "Grace Student")
}

func TestSelfEnrollAndReject(t *testing.T) {
	env := newEnv(t)
	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	course := dbtest.Course(t, env.db, tutor.ID, "Physics", 1500)

	path := fmt.Sprintf("/student/courses/%d/enroll", course.ID)
	status, body := env.call(t, http.MethodPost, path, tokenFor(t, student), nil)
	require.Equal(t, http.StatusCreated, status, body.Message)

	status, body = env.call(t, http.MethodPost, path, tokenFor(t, student), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body.Message)

	status, body = env.call(t, http.MethodPost, "/enrollment-requests", "", fiber.Map{
		"course_id":         course.ID,
		"name":              "Late Comer",
		"email":             "late@example.com",
		"phone":             "+15550999",
		"preferred_contact": "phone",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var request enrollmentModels.EnrollmentRequest
	decode(t, body, &request)

	status, body = env.call(t, http.MethodPost, fmt.Sprintf("/admin/enrollment-requests/%d/reject", request.ID), tokenFor(t, admin), fiber.Map{"reason": "Course is full"})
	require.Equal(t, http.StatusOK, status, body.Message)
	decode(t, body, &request)
	assert.Equal(t, enrollmentModels.RequestRejected, request.Status)
	assert.Equal(t, "Course is full", request.RejectionReason)

	status, _ = env.call(t, http.MethodPost, "/admin/enrollment-requests/abc/approve", tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogAuthoring(t *testing.T) {
	env := newEnv(t)
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	rival := dbtest.User(t, env.db, models.RoleTutor, "rival")
	token := tokenFor(t, tutor)

	status, body := env.call(t, http.MethodPost, "/manage/courses", token, fiber.Map{"title": "Chemistry", "price": 2500, "max_students": 10})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var course courseModels.Course
	decode(t, body, &course)
	assert.Equal(t, courseModels.StatusDraft, course.Status)
	assert.Equal(t, tutor.ID, course.CreatedByID)

	// Drafts stay out of the public catalog
	status, _ = env.call(t, http.MethodGet, fmt.Sprintf("/courses/%d", course.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.call(t, http.MethodPost, fmt.Sprintf("/manage/courses/%d/topics", course.ID), token, fiber.Map{"title": "Atoms"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var topic courseModels.Topic
	decode(t, body, &topic)

	status, body = env.call(t, http.MethodPost, fmt.Sprintf("/manage/topics/%d/subtopics", topic.ID), token, fiber.Map{"title": "Electrons"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var subtopic courseModels.Subtopic
	decode(t, body, &subtopic)

	materials := fmt.Sprintf("/manage/subtopics/%d/materials", subtopic.ID)
	status, body = env.call(t, http.MethodPost, materials, token, fiber.Map{"title": "Intro video", "type": "VIDEO"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body.Data), "url")

	status, _ = env.call(t, http.MethodPost, materials, token, fiber.Map{"title": "Notes", "type": "TEXT", "body": "Electrons orbit the nucleus."})
	require.Equal(t, http.StatusCreated, status)

	status, body = env.call(t, http.MethodPost, fmt.Sprintf("/manage/topics/%d/tests", topic.ID), token, fiber.Map{
		"title":      "Quiz",
		"pass_score": 60,
		"questions": []fiber.Map{
			{"prompt": "Charge of an electron?", "options": []string{"positive", "negative"}, "answer": 1},
		},
	})
	require.Equal(t, http.StatusCreated, status, body.Message)

	status, _ = env.call(t, http.MethodPut, fmt.Sprintf("/manage/courses/%d", course.ID), tokenFor(t, rival), fiber.Map{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(t, http.MethodPatch, fmt.Sprintf("/manage/courses/%d/publish", course.ID), token, fiber.Map{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, status)

	status, body = env.call(t, http.MethodGet, "/courses?q=chem", "", nil)
	require.Equal(t, http.StatusOK, status)
	var catalog struct {
		Courses []courseModels.Course `json:"courses"`
	}
	decode(t, body, &catalog)
	require.Len(t, catalog.Courses, 1)

	status, body = env.call(t, http.MethodGet, fmt.Sprintf("/courses/%d", course.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var tree courseModels.Course
	decode(t, body, &tree)
	require.Len(t, tree.Topics, 1)
	require.Len(t, tree.Topics[0].Subtopics, 1)
	assert.Len(t, tree.Topics[0].Subtopics[0].Materials, 1)
	require.Len(t, tree.Topics[0].Tests, 1)
	assert.Equal(t, 1, tree.Topics[0].Tests[0].Questions.Data()[0].Answer)

	status, _ = env.call(t, http.MethodDelete, fmt.Sprintf("/manage/courses/%d", course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	for _, model := range []interface{}{&courseModels.Topic{}, &courseModels.Subtopic{}, &courseModels.Material{}, &courseModels.Test{}} {
		var n int64
		require.NoError(t, env.db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestSelfEnrollNeedsPublishedCourse(t *testing.T) {
	env := newEnv(t)
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	course := dbtest.Course(t, env.db, tutor.ID, "Drafted", 900)
	require.NoError(t, env.db.Model(&course).Update("status", courseModels.StatusDraft).Error)

	status, _ := env.call(t, http.MethodGet, fmt.Sprintf("/courses/%d", course.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	path := fmt.Sprintf("/student/courses/%d/enroll", course.ID)
	status, body := env.call(t, http.MethodPost, path, tokenFor(t, student), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Course is not open for enrollment!", body.Message)

	var rows int64
	require.NoError(t, env.db.Model(&enrollmentModels.CourseEnrollment{}).Count(&rows).Error)
	assert.Zero(t, rows)
	require.NoError(t, env.db.Model(&enrollmentModels.Payment{}).Count(&rows).Error)
	assert.Zero(t, rows)

	status, body = env.call(t, http.MethodPatch, fmt.Sprintf("/manage/courses/%d/publish", course.ID), tokenFor(t, tutor), fiber.Map{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, status, body.Message)
	status, body = env.call(t, http.MethodPost, path, tokenFor(t, student), nil)
	assert.Equal(t, http.StatusCreated, status, body.Message)
}

func TestDeleteCourseWithActiveEnrollmentsIsRefused(t *testing.T) {
	env := newEnv(t)
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	course := dbtest.Course(t, env.db, tutor.ID, "Biology", 0)

	status, _ := env.call(t, http.MethodPost, fmt.Sprintf("/student/courses/%d/enroll", course.ID), tokenFor(t, student), nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := env.call(t, http.MethodDelete, fmt.Sprintf("/manage/courses/%d", course.ID), tokenFor(t, tutor), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Course has active enrollments!", body.Message)
}

func TestDeleteUser(t *testing.T) {
	env := newEnv(t)
	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	course := dbtest.Course(t, env.db, tutor.ID, "History", 0)
	adminToken := tokenFor(t, admin)

	status, body := env.call(t, http.MethodPost, "/admin/enrollments", adminToken, fiber.Map{"student_id": student.ID, "course_id": course.ID})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var result enrollmentService.Result
	decode(t, body, &result)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", tutor.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User has active enrollments!", body.Message)

	status, _ = env.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.call(t, http.MethodPatch, fmt.Sprintf("/admin/enrollments/%d/status", result.Enrollment.ID), adminToken, fiber.Map{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, status)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", tutor.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User still owns courses!", body.Message)
	status, _ = env.call(t, http.MethodGet, fmt.Sprintf("/courses/%d", course.ID), "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/manage/courses/%d", course.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, status, body.Message)
	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", tutor.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, status, body.Message)

	status, body = env.call(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", student.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, status, body.Message)

	var left int64
	require.NoError(t, env.db.Unscoped().Model(&models.User{}).Where("id = ?", student.ID).Count(&left).Error)
	assert.Zero(t, left)
	require.NoError(t, env.db.Unscoped().Table("point_entries").Where("user_id = ?", student.ID).Count(&left).Error)
	assert.Zero(t, left)
}

func TestUserAdministration(t *testing.T) {
	env := newEnv(t)
	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	adminToken := tokenFor(t, admin)

	status, body := env.call(t, http.MethodPost, "/admin/users", adminToken, fiber.Map{
		"name": "New Tutor", "email": "tutor@example.com", "role": "TUTOR", "password": "long-enough", "subjects": "math,physics",
	})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var created models.User
	decode(t, body, &created)
	assert.Equal(t, models.RoleTutor, created.Role)

	status, _ = env.call(t, http.MethodPost, "/admin/users", adminToken, fiber.Map{
		"name": "Boss", "email": "boss@example.com", "role": "OWNER", "password": "long-enough",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(t, http.MethodPut, fmt.Sprintf("/admin/users/%d", created.ID), adminToken, fiber.Map{"bio": "Ten years teaching"})
	require.Equal(t, http.StatusOK, status)

	status, body = env.call(t, http.MethodGet, "/admin/users?role=TUTOR", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Users []models.User `json:"users"`
	}
	decode(t, body, &page)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "Ten years teaching", page.Users[0].Bio)

	status, _ = env.call(t, http.MethodPut, fmt.Sprintf("/admin/users/%d", created.ID), adminToken, fiber.Map{"password": "reset-by-admin"})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.call(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "tutor@example.com", "password": "reset-by-admin"})
	assert.Equal(t, http.StatusOK, status)
}

func TestChatOverHTTP(t *testing.T) {
	env := newEnv(t)
	alice := dbtest.User(t, env.db, models.RoleStudent, "alice")
	bob := dbtest.User(t, env.db, models.RoleTutor, "bob")
	eve := dbtest.User(t, env.db, models.RoleStudent, "eve")

	status, body := env.call(t, http.MethodPost, "/chats", tokenFor(t, alice), fiber.Map{"type": "DIRECT", "participant_ids": []uint{bob.ID}})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var chat struct {
		ID uint `json:"ID"`
	}
	decode(t, body, &chat)

	status, body = env.call(t, http.MethodPost, "/chats", tokenFor(t, bob), fiber.Map{"type": "direct", "participant_ids": []uint{alice.ID}})
	require.Equal(t, http.StatusOK, status, body.Message)
	var again struct {
		ID uint `json:"ID"`
	}
	decode(t, body, &again)
	assert.Equal(t, chat.ID, again.ID)

	messages := fmt.Sprintf("/chats/%d/messages", chat.ID)
	status, body = env.call(t, http.MethodPost, messages, tokenFor(t, alice), fiber.Map{"body": "Hi Bob"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	var msg struct {
		ID uint `json:"ID"`
	}
	decode(t, body, &msg)

	status, body = env.call(t, http.MethodGet, "/chats", tokenFor(t, bob), nil)
	require.Equal(t, http.StatusOK, status)
	var summaries []struct {
		Unread int64 `json:"unread"`
	}
	decode(t, body, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].Unread)

	status, body = env.call(t, http.MethodPost, fmt.Sprintf("/chats/%d/read", chat.ID), tokenFor(t, bob), nil)
	require.Equal(t, http.StatusOK, status, body.Message)
	assert.JSONEq(t, fmt.Sprintf(`{"last_read_message_id":%d}`, msg.ID), string(body.Data))

	status, _ = env.call(t, http.MethodGet, messages, tokenFor(t, eve), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.call(t, http.MethodPost, messages, tokenFor(t, alice), fiber.Map{"body": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGamificationOverHTTP(t *testing.T) {
	env := newEnv(t)
	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	adminToken := tokenFor(t, admin)

	status, body := env.call(t, http.MethodPost, "/admin/achievements", adminToken, fiber.Map{
		"code": "first-100", "title": "Century", "metric": "points_total", "threshold": 100,
	})
	require.Equal(t, http.StatusCreated, status, body.Message)

	status, body = env.call(t, http.MethodPost, "/admin/points", adminToken, fiber.Map{"user_id": student.ID, "points": 120, "reason": "bonus"})
	require.Equal(t, http.StatusCreated, status, body.Message)
	assert.Contains(t, string(body.Data), "Century")

	status, _ = env.call(t, http.MethodPost, "/admin/points", adminToken, fiber.Map{"user_id": student.ID, "points": 0, "reason": "bonus"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.call(t, http.MethodGet, "/me/achievements", tokenFor(t, student), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "first-100")

	status, body = env.call(t, http.MethodGet, "/leaderboard?period=all", "", nil)
	require.Equal(t, http.StatusOK, status)
	var board []gamificationService.LeaderboardEntry
	decode(t, body, &board)
	require.NotEmpty(t, board)
	assert.Equal(t, student.ID, board[0].UserID)

	status, _ = env.call(t, http.MethodGet, "/leaderboard?period=year", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDashboard(t *testing.T) {
	env := newEnv(t)
	owner := dbtest.User(t, env.db, models.RoleOwner, "owner")
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	dbtest.Course(t, env.db, tutor.ID, "Art", 100)

	for _, path := range []string{"/admin/dashboard/stats", "/admin/dashboard/tutors", "/admin/dashboard/courses"} {
		status, body := env.call(t, http.MethodGet, path, tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusOK, status, path)
		assert.True(t, body.Status, path)
	}

	status, _ := env.call(t, http.MethodGet, "/admin/dashboard/stats", tokenFor(t, tutor), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestContactRelay(t *testing.T) {
	env := newEnv(t)
	form := fiber.Map{"name": "Ada", "email": "ada@example.com", "message": "Do you teach calculus?"}

	status, _ := env.call(t, http.MethodPost, "/contact", "", form)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.relay.sent, 1)
	assert.Equal(t, "Do you teach calculus?", env.relay.sent[0].Message)

	status, _ = env.call(t, http.MethodPost, "/contact", "", fiber.Map{"name": "Ada", "email": "not-an-email", "message": "Hello there"})
	assert.Equal(t, http.StatusBadRequest, status)

	env.relay.err = fmt.Errorf("%w: status 500", utils.ErrRelayFailed)
	status, body := env.call(t, http.MethodPost, "/contact", "", form)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Failed to deliver message", body.Message)

	env.relay.err = utils.ErrRelayNotConfigured
	status, _ = env.call(t, http.MethodPost, "/contact", "", form)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestPublicRateLimit(t *testing.T) {
	env := newEnv(t, func(cfg *config.Config) { cfg.PublicRateLimit = 2 })
	form := fiber.Map{"name": "Ada", "email": "ada@example.com", "message": "Hello there"}

	for i := 0; i < 2; i++ {
		status, _ := env.call(t, http.MethodPost, "/contact", "", form)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := env.call(t, http.MethodPost, "/contact", "", form)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newEnv(t)
	env.call(t, http.MethodGet, "/health", "", nil)

	admin := dbtest.User(t, env.db, models.RoleAdmin, "admin")
	tutor := dbtest.User(t, env.db, models.RoleTutor, "tutor")
	student := dbtest.User(t, env.db, models.RoleStudent, "student")
	other := dbtest.User(t, env.db, models.RoleStudent, "other")
	course := dbtest.Course(t, env.db, tutor.ID, "Metrics", 0)
	status, body := env.call(t, http.MethodPost, fmt.Sprintf("/student/courses/%d/enroll", course.ID), tokenFor(t, student), nil)
	require.Equal(t, http.StatusCreated, status, body.Message)
	status, body = env.call(t, http.MethodPost, "/admin/enrollments", tokenFor(t, admin), fiber.Map{"student_id": other.ID, "course_id": course.ID})
	require.Equal(t, http.StatusCreated, status, body.Message)

	resp := env.request(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "tutorhub_http_requests_total"))
	assert.Contains(t, string(raw), `tutorhub_direct_enrollments_total{result="enrolled",source="self"}`)
	assert.Contains(t, string(raw), `tutorhub_direct_enrollments_total{result="enrolled",source="admin"}`)
}
