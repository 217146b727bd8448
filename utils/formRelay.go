package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrRelayNotConfigured = errors.New("form relay is not configured")
	ErrRelayFailed        = errors.New("form relay did not accept the message")
)

type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// FormRelay forwards contact form submissions to a third-party form endpoint.
type FormRelay struct {
	url    string
	client *resty.Client
}

func NewFormRelay(url string, timeout time.Duration) *FormRelay {
	return &FormRelay{
		url:    url,
		client: resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
	}
}

// Send posts the form as JSON. Any non-2xx answer is ErrRelayFailed.
func (r *FormRelay) Send(ctx context.Context, form ContactForm) error {
	if r == nil || r.url == "" {
		return ErrRelayNotConfigured
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(form).
		Post(r.url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: status %d: %s", ErrRelayFailed, resp.StatusCode(), resp.String())
	}
	return nil
}
