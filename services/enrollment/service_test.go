package enrollmentService

import (
	"context"
	"sync"
	"testing"

	"tutorhub/apperr"
	"tutorhub/database/dbtest"
	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakePoints struct {
	mu      sync.Mutex
	awarded []uint
}

func (f *fakePoints) AwardEnrollment(_ context.Context, studentID, _ uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awarded = append(f.awarded, studentID)
	return nil
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc := New(db, DefaultTutorCapacity)
	svc.HashPassword = BcryptHash(bcrypt.MinCost)
	return svc, db
}

func submit(t *testing.T, svc *Service, courseID uint, email string) *enrollmentModels.EnrollmentRequest {
	t.Helper()
	req, err := svc.SubmitRequest(context.Background(), SubmitInput{
		CourseID:         courseID,
		Name:             "Ada Student",
		Email:            email,
		Phone:            "+15550100",
		PreferredContact: "email",
	})
	require.NoError(t, err)
	return req
}

// seedLoad gives tutor n ACTIVE enrollments on course.
func seedLoad(t *testing.T, db *gorm.DB, tutorID, courseID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		student := dbtest.User(t, db, models.RoleStudent, "load")
		require.NoError(t, db.Create(&enrollmentModels.CourseEnrollment{
			StudentID: student.ID,
			CourseID:  courseID,
			TutorID:   tutorID,
			Status:    enrollmentModels.StatusActive,
		}).Error)
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSubmitRequest(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)

	req, err := svc.SubmitRequest(context.Background(), SubmitInput{
		CourseID:         course.ID,
		Name:             "  Ada Student ",
		Email:            "Ada@Example.com",
		Phone:            "+15550100",
		PreferredContact: "whatsapp",
		Message:          "Evenings please",
	})
	require.NoError(t, err)
	assert.Equal(t, enrollmentModels.RequestPending, req.Status)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Ada Student", req.Name)
	assert.Equal(t, enrollmentModels.ContactWhatsApp, req.PreferredContact)
	assert.NotEmpty(t, req.Reference)
}

func TestSubmitRequestValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SubmitRequest(context.Background(), SubmitInput{Email: "not-an-email", PreferredContact: "fax"})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	for _, field := range []string{"course_id", "name", "email", "phone", "preferred_contact"} {
		assert.Contains(t, appErr.Fields, field)
	}
}

func TestSubmitRequestUnknownCourse(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SubmitRequest(context.Background(), SubmitInput{
		CourseID:         999,
		Name:             "Ada",
		Email:            "ada@example.com",
		Phone:            "1",
		PreferredContact: "EMAIL",
	})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSubmitRequestDuplicatePending(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")

	first := submit(t, svc, course.ID, "ada@example.com")

	_, err := svc.SubmitRequest(context.Background(), SubmitInput{
		CourseID:         course.ID,
		Name:             "Ada",
		Email:            "ADA@example.com",
		Phone:            "1",
		PreferredContact: "PHONE",
	})
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Once the first request is closed the same person may ask again.
	_, err = svc.Reject(context.Background(), first.ID, admin.ID, "Course is full this term")
	require.NoError(t, err)
	submit(t, svc, course.ID, "ada@example.com")
}

func TestApproveCreatesEnrollmentAndPayment(t *testing.T) {
	svc, db := newService(t)
	points := &fakePoints{}
	svc.Points = points

	tutor := dbtest.User(t, db, models.RoleTutor, "t1")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "C1", 60000)
	seedLoad(t, db, tutor.ID, course.ID, 5)

	req := submit(t, svc, course.ID, "r1@example.com")

	res, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	require.NoError(t, err)

	assert.Equal(t, enrollmentModels.StatusActive, res.Enrollment.Status)
	assert.Equal(t, tutor.ID, res.Enrollment.TutorID)
	assert.Equal(t, course.ID, res.Enrollment.CourseID)
	require.NotNil(t, res.Enrollment.RequestID)
	assert.Equal(t, req.ID, *res.Enrollment.RequestID)

	assert.Equal(t, int64(60000), res.Payment.Amount)
	assert.Equal(t, enrollmentModels.PaymentPaid, res.Payment.Status)
	assert.Equal(t, enrollmentModels.MethodManual, res.Payment.Method)
	assert.Equal(t, res.Enrollment.ID, res.Payment.EnrollmentID)

	assert.Equal(t, models.RoleStudent, res.Student.Role)
	assert.Equal(t, "r1@example.com", res.Student.Email)

	var stored enrollmentModels.EnrollmentRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, enrollmentModels.RequestApproved, stored.Status)
	require.NotNil(t, stored.ProcessedAt)
	require.NotNil(t, stored.ProcessedByID)
	assert.Equal(t, admin.ID, *stored.ProcessedByID)
	require.NotNil(t, stored.EnrollmentID)
	assert.Equal(t, res.Enrollment.ID, *stored.EnrollmentID)

	assert.Equal(t, []uint{res.Student.ID}, points.awarded)
}

func TestApproveTwiceFailsSecondTime(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	req := submit(t, svc, course.ID, "ada@example.com")

	_, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	assert.Equal(t, int64(1), count(t, db, &enrollmentModels.CourseEnrollment{}))
	assert.Equal(t, int64(1), count(t, db, &enrollmentModels.Payment{}))
}

func TestApproveRejectsTutorAtCapacity(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	seedLoad(t, db, tutor.ID, course.ID, DefaultTutorCapacity)

	req := submit(t, svc, course.ID, "late@example.com")
	users := count(t, db, &models.User{})

	_, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	assert.ErrorIs(t, err, ErrTutorAtCapacity)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Equal(t, int64(DefaultTutorCapacity), count(t, db, &enrollmentModels.CourseEnrollment{}))
	assert.Equal(t, int64(0), count(t, db, &enrollmentModels.Payment{}))
	assert.Equal(t, users, count(t, db, &models.User{}), "student account must roll back with the enrollment")

	var stored enrollmentModels.EnrollmentRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, enrollmentModels.RequestPending, stored.Status)
}

func TestApproveRejectsExistingActiveEnrollment(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)

	r1 := submit(t, svc, course.ID, "ada@example.com")
	_, err := svc.Approve(context.Background(), ApproveInput{RequestID: r1.ID, ProcessedByID: admin.ID})
	require.NoError(t, err)

	r2 := submit(t, svc, course.ID, "ada@example.com")
	_, err = svc.Approve(context.Background(), ApproveInput{RequestID: r2.ID, ProcessedByID: admin.ID})
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	views, total, err := svc.ListEnrollments(context.Background(), EnrollmentFilter{CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, views, 1)
	assert.Equal(t, int64(1), count(t, db, &enrollmentModels.Payment{}))

	var stored enrollmentModels.EnrollmentRequest
	require.NoError(t, db.First(&stored, r2.ID).Error)
	assert.Equal(t, enrollmentModels.RequestPending, stored.Status)
}

func TestApprovedRequestsHaveExactlyOneEnrollmentAndPayment(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		req := submit(t, svc, course.ID, email)
		_, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
		require.NoError(t, err)
	}
	rejected := submit(t, svc, course.ID, "d@example.com")
	_, err := svc.Reject(context.Background(), rejected.ID, admin.ID, "")
	require.NoError(t, err)

	var approved []enrollmentModels.EnrollmentRequest
	require.NoError(t, db.Where("status = ?", enrollmentModels.RequestApproved).Find(&approved).Error)
	require.Len(t, approved, 3)

	for _, req := range approved {
		var enrollments []enrollmentModels.CourseEnrollment
		require.NoError(t, db.Where("request_id = ?", req.ID).Find(&enrollments).Error)
		require.Len(t, enrollments, 1)
		assert.Equal(t, *req.EnrollmentID, enrollments[0].ID)

		var payments int64
		require.NoError(t, db.Model(&enrollmentModels.Payment{}).Where("enrollment_id = ?", enrollments[0].ID).Count(&payments).Error)
		assert.Equal(t, int64(1), payments)
	}
}

func TestApproveConcurrentRespectsCapacity(t *testing.T) {
	svc, db := newService(t)
	svc.TutorCapacity = 3
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)

	var ids []uint
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io"} {
		ids = append(ids, submit(t, svc, course.ID, email).ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
		full     int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := svc.Approve(context.Background(), ApproveInput{RequestID: id, ProcessedByID: admin.ID})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				approved++
			case ErrTutorAtCapacity:
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, approved)
	assert.Equal(t, 3, full)

	var active int64
	require.NoError(t, db.Model(&enrollmentModels.CourseEnrollment{}).
		Where("tutor_id = ? AND status = ?", tutor.ID, enrollmentModels.StatusActive).Count(&active).Error)
	assert.Equal(t, int64(3), active)
}

func TestApproveTutorOverrideAndAmount(t *testing.T) {
	svc, db := newService(t)
	creator := dbtest.User(t, db, models.RoleTutor, "creator")
	other := dbtest.User(t, db, models.RoleTutor, "other")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	student := dbtest.User(t, db, models.RoleStudent, "student")
	course := dbtest.Course(t, db, creator.ID, "Algebra", 60000)

	req := submit(t, svc, course.ID, "ada@example.com")
	_, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID, TutorID: student.ID})
	assert.ErrorIs(t, err, ErrInvalidTutor)

	_, err = svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID, TutorID: 4242})
	assert.ErrorIs(t, err, ErrTutorNotFound)

	discount := int64(45000)
	res, err := svc.Approve(context.Background(), ApproveInput{
		RequestID:     req.ID,
		ProcessedByID: admin.ID,
		TutorID:       other.ID,
		PaymentMethod: "cash",
		Amount:        &discount,
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, res.Enrollment.TutorID)
	assert.Equal(t, discount, res.Payment.Amount)
	assert.Equal(t, enrollmentModels.MethodCash, res.Payment.Method)
}

func TestApproveRefusesStaffEmail(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)

	req := submit(t, svc, course.ID, tutor.Email)
	_, err := svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	assert.ErrorIs(t, err, ErrNotAStudent)
}

func TestEnrollSelfAndSeatLimit(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	require.NoError(t, db.Model(&course).Update("max_students", 1).Error)

	first := dbtest.User(t, db, models.RoleStudent, "first")
	second := dbtest.User(t, db, models.RoleStudent, "second")

	res, err := svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID, PaymentMethod: enrollmentModels.MethodSelf}, ByUserID{UserID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, enrollmentModels.MethodSelf, res.Payment.Method)
	assert.Nil(t, res.Enrollment.RequestID)

	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: first.ID})
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: second.ID})
	assert.ErrorIs(t, err, ErrCourseFull)

	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: tutor.ID})
	assert.ErrorIs(t, err, ErrNotAStudent)

	negative := int64(-1)
	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID, Amount: &negative}, ByUserID{UserID: second.ID})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID, PaymentMethod: "BITCOIN"}, ByUserID{UserID: second.ID})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRejectIsTerminal(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	req := submit(t, svc, course.ID, "ada@example.com")

	rejected, err := svc.Reject(context.Background(), req.ID, admin.ID, " No seats ")
	require.NoError(t, err)
	assert.Equal(t, enrollmentModels.RequestRejected, rejected.Status)
	assert.Equal(t, "No seats", rejected.RejectionReason)
	require.NotNil(t, rejected.ProcessedAt)

	_, err = svc.Reject(context.Background(), req.ID, admin.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = svc.Approve(context.Background(), ApproveInput{RequestID: req.ID, ProcessedByID: admin.ID})
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = svc.Reject(context.Background(), 999, admin.ID, "")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	assert.Equal(t, int64(0), count(t, db, &enrollmentModels.CourseEnrollment{}))
}

func TestUpdateStatusFreesCapacity(t *testing.T) {
	svc, db := newService(t)
	svc.TutorCapacity = 1
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	course := dbtest.Course(t, db, tutor.ID, "Algebra", 60000)
	a := dbtest.User(t, db, models.RoleStudent, "a")
	b := dbtest.User(t, db, models.RoleStudent, "b")

	res, err := svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: a.ID})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: b.ID})
	assert.ErrorIs(t, err, ErrTutorAtCapacity)

	_, err = svc.UpdateStatus(context.Background(), res.Enrollment.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	done, err := svc.UpdateStatus(context.Background(), res.Enrollment.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, enrollmentModels.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = svc.UpdateStatus(context.Background(), res.Enrollment.ID, enrollmentModels.StatusCancelled)
	assert.ErrorIs(t, err, ErrNotActive)

	second, err := svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: b.ID})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), second.Enrollment.ID, enrollmentModels.StatusCancelled)
	require.NoError(t, err)

	// Only ACTIVE enrollments count as duplicates, so a finished course can be retaken.
	_, err = svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID}, ByUserID{UserID: a.ID})
	require.NoError(t, err)
}

func TestListRequestsAndEnrollments(t *testing.T) {
	svc, db := newService(t)
	t1 := dbtest.User(t, db, models.RoleTutor, "t1")
	t2 := dbtest.User(t, db, models.RoleTutor, "t2")
	admin := dbtest.User(t, db, models.RoleAdmin, "admin")
	c1 := dbtest.Course(t, db, t1.ID, "C1", 100)
	c2 := dbtest.Course(t, db, t2.ID, "C2", 200)

	r1 := submit(t, svc, c1.ID, "a@example.com")
	submit(t, svc, c2.ID, "b@example.com")
	approved, err := svc.Approve(context.Background(), ApproveInput{RequestID: r1.ID, ProcessedByID: admin.ID})
	require.NoError(t, err)

	pending, total, err := svc.ListRequests(context.Background(), RequestFilter{Status: enrollmentModels.RequestPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, c2.ID, pending[0].CourseID)

	views, total, err := svc.ListEnrollments(context.Background(), EnrollmentFilter{TutorID: t1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, "C1", views[0].CourseTitle)
	assert.Equal(t, "a@example.com", views[0].StudentEmail)
	assert.Equal(t, "t1", views[0].TutorName)
	require.NotNil(t, views[0].PaymentAmount)
	assert.Equal(t, int64(100), *views[0].PaymentAmount)

	views, _, err = svc.ListEnrollments(context.Background(), EnrollmentFilter{TutorID: t2.ID})
	require.NoError(t, err)
	assert.Empty(t, views)

	enrollment, payment, err := svc.GetEnrollment(context.Background(), approved.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, enrollment.CourseID)
	require.NotNil(t, payment)
	assert.Equal(t, enrollmentModels.PaymentPaid, payment.Status)

	_, _, err = svc.GetEnrollment(context.Background(), 999)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestSelfEnrollRejectsDraftCourse(t *testing.T) {
	svc, db := newService(t)
	tutor := dbtest.User(t, db, models.RoleTutor, "tutor")
	student := dbtest.User(t, db, models.RoleStudent, "student")
	course := dbtest.Course(t, db, tutor.ID, "Draft", 100)
	require.NoError(t, db.Model(&course).Update("status", courseModels.StatusDraft).Error)

	_, err := svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID, Source: SourceSelf}, ByUserID{UserID: student.ID})
	assert.ErrorIs(t, err, ErrCourseNotPublished)
	assert.Zero(t, count(t, db, &enrollmentModels.CourseEnrollment{}))
	assert.Zero(t, count(t, db, &enrollmentModels.Payment{}))

	// Staff may still place a student on a course before it is published.
	res, err := svc.Enroll(context.Background(), EnrollInput{CourseID: course.ID, Source: SourceAdmin}, ByUserID{UserID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, enrollmentModels.StatusActive, res.Enrollment.Status)
}
