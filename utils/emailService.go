package utils

import (
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// Mailer sends HTML mail through SendGrid. Without an API key it only logs.
type Mailer struct {
	apiKey string
	host   string
	from   *sgmail.Email
}

func NewMailer(apiKey, fromEmail, fromName string) *Mailer {
	return &Mailer{
		apiKey: apiKey,
		host:   sendGridHost,
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

// Send delivers one message to every recipient.
func (m *Mailer) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	if m.apiKey == "" {
		log.Printf("[MAIL] SendGrid not configured, skipping %q to %v", subject, to)
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = subject
	for _, addr := range to {
		p.AddTos(sgmail.NewEmail("", addr))
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/html", htmlBody))

	req := sendgrid.GetRequest(m.apiKey, sendGridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	log.Printf("[MAIL] Sent %q to %d recipient(s)", subject, len(to))
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B3A5C; padding: 24px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 22px; }
			.content { padding: 32px 28px; color: #1B3A5C; line-height: 1.6; }
			.info-box { background: #EEF4FA; padding: 15px; border-radius: 4px; border-left: 4px solid #3C8DBC; margin: 20px 0; }
			.footer { background-color: #F6F6F6; padding: 16px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>TutorHub</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">You are receiving this because of activity on your TutorHub account.</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
