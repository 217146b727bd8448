package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPaginate(t *testing.T) {
	p := Paginate(41, 2, 20)
	assert.Equal(t, int64(3), p["pages"])
	assert.Equal(t, 2, p["page"])

	assert.Equal(t, int64(0), Paginate(0, 1, 20)["pages"])
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestFormRelay(t *testing.T) {
	var got ContactForm
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		if got.Email == "bounce@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewFormRelay(srv.URL, 5*time.Second)

	require.NoError(t, relay.Send(context.Background(), ContactForm{Name: "Ada", Email: "ada@example.com", Message: "Hello"}))
	assert.Equal(t, "Hello", got.Message)

	err := relay.Send(context.Background(), ContactForm{Name: "Ada", Email: "bounce@example.com", Message: "Hello"})
	assert.True(t, errors.Is(err, ErrRelayFailed))

	err = NewFormRelay("", time.Second).Send(context.Background(), ContactForm{})
	assert.ErrorIs(t, err, ErrRelayNotConfigured)
}

func TestMailerSkipsWithoutKey(t *testing.T) {
	m := NewMailer("", "no-reply@example.com", "TutorHub")
	assert.NoError(t, m.Send([]string{"ada@example.com"}, "Hi", "<p>Hi</p>"))
}

func TestMailerPostsToSendGrid(t *testing.T) {
	var auth, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer("SG.test", "no-reply@example.com", "TutorHub")
	m.host = srv.URL

	require.NoError(t, m.Send([]string{"ada@example.com"}, "Enrollment confirmed", "<p>Welcome</p>"))
	assert.Equal(t, "Bearer SG.test", auth)
	assert.Equal(t, sendGridEndpoint, path)
	assert.True(t, strings.Contains(body, "ada@example.com"))
	assert.True(t, strings.Contains(body, "Enrollment confirmed"))
}

func TestMailerReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	m := NewMailer("SG.bad", "no-reply@example.com", "TutorHub")
	m.host = srv.URL
	assert.Error(t, m.Send([]string{"ada@example.com"}, "Hi", "<p>Hi</p>"))
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ClientIP(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "203.0.113.7", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "0.0.0.0", string(body))
}
