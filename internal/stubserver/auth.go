package stubserver

import (
	"strings"
	"time"

	"datagpt-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleSignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request body")
	}

	s.mu.Lock()
	user, found := s.users[req.Email]
	s.mu.Unlock()
	if !found {
		return fail(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req.Password)); err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":   user.id,
		"email": user.email,
		"exp":   jwt.NewNumericDate(user.expiry),
		"iat":   jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "token signing failed")
	}
	s.sessions.Set(token, user, cache.DefaultExpiration)

	return c.JSON(dto.SignInResponse{
		Success:    true,
		Message:    "signed in",
		User:       &dto.UserDTO{Id: user.id, Email: user.email, Name: user.name},
		Token:      token,
		IsAppValid: user.appValid,
		ExpiryDate: user.expiry.Format(time.RFC3339),
	})
}

func (s *Server) handleSubscription(c *fiber.Ctx) error {
	if s.failSubscription.Load() {
		return fail(c, fiber.StatusInternalServerError, "subscription service unavailable")
	}

	user, err := s.bearerUser(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid bearer token")
	}
	return c.JSON(dto.SubscriptionStatusResponse{
		IsAppValid: user.appValid,
		ExpiryDate: user.expiry.Format(time.RFC3339),
	})
}

func (s *Server) bearerUser(c *fiber.Ctx) (*stubUser, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil, fiber.ErrUnauthorized
	}
	if cached, found := s.sessions.Get(token); found {
		return cached.(*stubUser), nil
	}

	// Session cache may have been purged; the signed token is still proof.
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fiber.ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	s.mu.Lock()
	user, found := s.users[email]
	s.mu.Unlock()
	if !found {
		return nil, fiber.ErrUnauthorized
	}
	s.sessions.Set(token, user, cache.DefaultExpiration)
	return user, nil
}
