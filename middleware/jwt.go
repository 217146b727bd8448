package middleware

import (
	"fmt"
	"strings"
	"time"

	"tutorhub/config"
	"tutorhub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// SessionCookie carries the same token as the Authorization header for browser clients.
const SessionCookie = "session"

// GenerateJWT generates a session token for the user
func GenerateJWT(user models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(config.AppConfig.SessionTTLHours) * time.Hour)
	claims := jwt.MapClaims{
		"userId": user.ID,
		"name":   user.Name,
		"role":   user.Role,
		"email":  user.Email,
		"iat":    time.Now().Unix(),
		"exp":    expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AppConfig.JWTKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// tokenFromRequest prefers the Authorization header and falls back to the session cookie.
func tokenFromRequest(c *fiber.Ctx) (string, bool) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		return authHeader[len("Bearer "):], true
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie, true
	}
	return "", false
}

// JWTMiddleware is a middleware to check for a valid session token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	tokenString, ok := tokenFromRequest(c)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid session!", nil)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}

	// JWT numbers decode as float64
	userID, ok := claims["userId"].(float64)
	if !ok || userID <= 0 {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}
	c.Locals("userId", uint(userID))
	if role, ok := claims["role"].(string); ok {
		c.Locals("userRole", role)
	}

	return c.Next()
}
