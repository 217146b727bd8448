package enrollmentService

import "tutorhub/apperr"

var (
	ErrCourseNotFound     = apperr.NotFound("Course not found!")
	ErrRequestNotFound    = apperr.NotFound("Enrollment request not found!")
	ErrEnrollmentNotFound = apperr.NotFound("Enrollment not found!")
	ErrStudentNotFound    = apperr.NotFound("Student not found!")
	ErrTutorNotFound      = apperr.NotFound("Tutor not found!")

	ErrDuplicateRequest   = apperr.Conflict("An enrollment request for this course is already pending!")
	ErrAlreadyProcessed   = apperr.Conflict("Enrollment request already processed!")
	ErrAlreadyEnrolled    = apperr.Conflict("Student already enrolled in this course!")
	ErrTutorAtCapacity    = apperr.Conflict("Tutor has reached the maximum number of active students!")
	ErrCourseFull         = apperr.Conflict("Course has no free seats left!")
	ErrCourseNotPublished = apperr.Conflict("Course is not open for enrollment!")
	ErrNotAStudent        = apperr.Conflict("Account is not a student account!")
	ErrNotActive          = apperr.Conflict("Only active enrollments can change status!")

	ErrInvalidTutor  = apperr.Validation("Assigned tutor must be a tutor or staff account!")
	ErrInvalidStatus = apperr.Validation("Status must be CANCELLED or COMPLETED!")
	ErrInvalidAmount = apperr.Validation("Amount must not be negative!")
)

// resultLabel names an enrollment outcome for metrics.
func resultLabel(err error) string {
	switch err {
	case nil:
		return "enrolled"
	case ErrTutorAtCapacity:
		return "capacity"
	case ErrAlreadyEnrolled:
		return "already_enrolled"
	case ErrAlreadyProcessed:
		return "already_processed"
	case ErrCourseFull:
		return "course_full"
	case ErrCourseNotPublished:
		return "not_published"
	}
	return apperr.KindOf(err).String()
}
