// Package fiberserver is the second, independent transport binding of
// the service. It implements the identical pipeline contract as the chi
// binding on top of gofiber, so either server can face clients alone.
package fiberserver

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/sessiond/internal/bodyreader"
	"github.com/patric-chuzhbe/sessiond/internal/logger"
	"github.com/patric-chuzhbe/sessiond/internal/models"
	"github.com/patric-chuzhbe/sessiond/internal/service"
)

type pipeline interface {
	SignUp(ctx context.Context, request models.SignupRequest) (string, error)
	SignIn(ctx context.Context, request models.LoginRequest) (string, error)
	CheckToken(tokenString string) (string, error)
	Ping(ctx context.Context) error
}

type tokenSource interface {
	CookieName() string
	FromParts(bodyToken, authorizationHeader, cookieValue string) string
}

type handlers struct {
	svc       pipeline
	tokens    tokenSource
	assembler *bodyreader.Assembler
}

// New builds the fiber application with the same endpoints and
// behavior as the chi binding.
func New(
	svc pipeline,
	tokens tokenSource,
	assembler *bodyreader.Assembler,
) *fiber.App {
	h := &handlers{
		svc:       svc,
		tokens:    tokens,
		assembler: assembler,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(withLoggingMiddleware)
	app.Post("/api/signup", h.postApisignup)
	app.Post("/api/login", h.postApilogin)
	app.All("/protected", h.protected)
	app.All("/unprotected", h.unprotected)
	app.Get("/ping", h.getPing)

	return app
}

func withLoggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	logger.Log.Infoln(
		"uri", c.OriginalURL(),
		"method", c.Method(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
		"size", len(c.Response().Body()),
	)

	return err
}

func (h *handlers) postApisignup(c *fiber.Ctx) error {
	request := models.SignupRequest{}
	if err := h.assembler.Assemble(c.UserContext(), bytes.NewReader(c.Body()), &request); err != nil {
		logger.Log.Debugln("Error calling the `h.assembler.Assemble()`: ", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(models.MessageResponse{Message: "Invalid schema."})
	}

	tokenString, err := h.svc.SignUp(c.UserContext(), request)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.svc.SignUp()`: ", zap.Error(err))
		return writeError(c, err)
	}

	h.setTokenCookie(c, tokenString)

	return c.Status(http.StatusOK).JSON(models.TokenResponse{Token: tokenString})
}

func (h *handlers) postApilogin(c *fiber.Ctx) error {
	request := models.LoginRequest{}
	if err := h.assembler.Assemble(c.UserContext(), bytes.NewReader(c.Body()), &request); err != nil {
		logger.Log.Debugln("Error calling the `h.assembler.Assemble()`: ", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(models.MessageResponse{Message: "Invalid schema."})
	}

	tokenString, err := h.svc.SignIn(c.UserContext(), request)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.svc.SignIn()`: ", zap.Error(err))
		return writeError(c, err)
	}

	h.setTokenCookie(c, tokenString)

	return c.Status(http.StatusOK).JSON(models.TokenResponse{Token: tokenString})
}

func (h *handlers) protected(c *fiber.Ctx) error {
	// A missing or malformed body just means no body token; the header
	// and cookie sources remain.
	carrier := models.TokenCarrier{}
	_ = h.assembler.Assemble(c.UserContext(), bytes.NewReader(c.Body()), &carrier)

	tokenString := h.tokens.FromParts(
		carrier.Token,
		c.Get("Authorization"),
		c.Cookies(h.tokens.CookieName()),
	)
	if _, err := h.svc.CheckToken(tokenString); err != nil {
		logger.Log.Debugln("Error calling the `h.svc.CheckToken()`: ", zap.Error(err))
		return c.Status(http.StatusUnauthorized).JSON(models.MessageResponse{Message: "Unauthorized."})
	}

	return c.Status(http.StatusOK).JSON(models.MessageResponse{Message: "Hello from protected endpoint."})
}

func (h *handlers) getPing(c *fiber.Ctx) error {
	if err := h.svc.Ping(c.UserContext()); err != nil {
		logger.Log.Debugln("Error calling the `h.svc.Ping()`: ", zap.Error(err))
		return c.SendStatus(http.StatusInternalServerError)
	}

	return c.SendStatus(http.StatusOK)
}

func (h *handlers) unprotected(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(models.MessageResponse{Message: "Hello from unprotected endpoint."})
}

// setTokenCookie attaches the session cookie. HttpOnly, Secure and
// SameSite=None are required attributes for a bearer-token cookie and
// must not be relaxed.
func (h *handlers) setTokenCookie(c *fiber.Ctx, tokenString string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.tokens.CookieName(),
		Value:    tokenString,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	})
}

func writeError(c *fiber.Ctx, err error) error {
	status := service.StatusForError(err)
	if status == http.StatusInternalServerError {
		return c.Status(status).SendString(service.MessageForError(err))
	}

	return c.Status(status).JSON(models.MessageResponse{Message: service.MessageForError(err)})
}
