package utils

import (
	"fmt"
	"html"
	"log"

	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"
	enrollmentService "tutorhub/services/enrollment"

	"gorm.io/gorm"
)

// EnrollmentNotifier mails staff and students about the enrollment workflow. Failures are
// logged and never reach the caller.
type EnrollmentNotifier struct {
	DB     *gorm.DB
	Mailer *Mailer
}

func (n *EnrollmentNotifier) staffEmails() []string {
	var emails []string
	if err := n.DB.Model(&models.User{}).Where("role IN ?", models.StaffRoles).Pluck("email", &emails).Error; err != nil {
		log.Printf("[MAIL] Failed to load staff emails: %v", err)
	}
	return emails
}

func (n *EnrollmentNotifier) send(to []string, subject, title, body string) {
	if err := n.Mailer.Send(to, subject, getEmailTemplate(title, body)); err != nil {
		log.Printf("[MAIL] Failed to send %q: %v", subject, err)
	}
}

func (n *EnrollmentNotifier) RequestSubmitted(req enrollmentModels.EnrollmentRequest, course courseModels.Course) {
	body := fmt.Sprintf(`
		<p>A new enrollment request is waiting for review.</p>
		<div class="info-box">
			<strong>Course:</strong> %s<br>
			<strong>Name:</strong> %s<br>
			<strong>Email:</strong> %s<br>
			<strong>Phone:</strong> %s (prefers %s)
		</div>
		<p>%s</p>
	`, html.EscapeString(course.Title), html.EscapeString(req.Name), html.EscapeString(req.Email),
		html.EscapeString(req.Phone), req.PreferredContact, html.EscapeString(req.Message))

	n.send(n.staffEmails(), "New enrollment request: "+course.Title, "New Enrollment Request", body)
}

func (n *EnrollmentNotifier) EnrollmentCreated(res enrollmentService.Result) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong>.</p>
		<div class="info-box">
			<strong>Payment reference:</strong> %s<br>
			<strong>Amount:</strong> %d
		</div>
	`, html.EscapeString(res.Student.Name), html.EscapeString(res.Course.Title), res.Payment.Reference, res.Payment.Amount)

	n.send([]string{res.Student.Email}, "Enrollment confirmed: "+res.Course.Title, "Welcome to your course", body)
}

func (n *EnrollmentNotifier) RequestRejected(req enrollmentModels.EnrollmentRequest, course courseModels.Course) {
	reason := "No reason was given."
	if req.RejectionReason != "" {
		reason = html.EscapeString(req.RejectionReason)
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your request to join <strong>%s</strong> was not approved.</p>
		<div class="info-box">%s</div>
	`, html.EscapeString(req.Name), html.EscapeString(course.Title), reason)

	n.send([]string{req.Email}, "Enrollment request update: "+course.Title, "Enrollment Request", body)
}
