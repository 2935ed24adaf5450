// Package router is the net/http transport binding. It wires the chi
// mux, assembles request bodies and maps pipeline errors to responses;
// all auth logic lives in the service and token packages.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/sessiond/internal/bodyreader"
	"github.com/patric-chuzhbe/sessiond/internal/gzippedhttp"
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
	SetCookie(response http.ResponseWriter, tokenString string)
	FromRequest(request *http.Request, bodyToken string) string
}

type handlers struct {
	svc       pipeline
	tokens    tokenSource
	assembler *bodyreader.Assembler
}

// New builds the chi mux with the logging and gzip middleware and the
// four endpoints of the public API.
func New(
	svc pipeline,
	tokens tokenSource,
	assembler *bodyreader.Assembler,
) *chi.Mux {
	h := &handlers{
		svc:       svc,
		tokens:    tokens,
		assembler: assembler,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Post(`/api/signup`, h.PostApisignup)
	router.Post(`/api/login`, h.PostApilogin)
	router.HandleFunc(`/protected`, h.Protected)
	router.HandleFunc(`/unprotected`, h.Unprotected)
	router.Get(`/ping`, h.GetPing)

	return router
}

// PostApisignup handles POST /api/signup.
func (h *handlers) PostApisignup(res http.ResponseWriter, req *http.Request) {
	request := models.SignupRequest{}
	if !h.assembleBody(res, req, &request) {
		return
	}

	tokenString, err := h.svc.SignUp(req.Context(), request)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.svc.SignUp()`: ", zap.Error(err))
		writeError(res, err)
		return
	}

	h.tokens.SetCookie(res, tokenString)
	writeJSON(res, http.StatusOK, models.TokenResponse{Token: tokenString})
}

// PostApilogin handles POST /api/login.
func (h *handlers) PostApilogin(res http.ResponseWriter, req *http.Request) {
	request := models.LoginRequest{}
	if !h.assembleBody(res, req, &request) {
		return
	}

	tokenString, err := h.svc.SignIn(req.Context(), request)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.svc.SignIn()`: ", zap.Error(err))
		writeError(res, err)
		return
	}

	h.tokens.SetCookie(res, tokenString)
	writeJSON(res, http.StatusOK, models.TokenResponse{Token: tokenString})
}

// Protected handles any method on /protected. The token is taken from
// the body `token` field, the Authorization header or the session
// cookie, in that order.
func (h *handlers) Protected(res http.ResponseWriter, req *http.Request) {
	carrier := models.TokenCarrier{}
	err := h.assembler.Assemble(req.Context(), req.Body, &carrier)
	if errors.Is(err, bodyreader.ErrStreamAborted) {
		// Connection is gone, nobody is listening for a response.
		return
	}
	// A missing or malformed body just means no body token; the header
	// and cookie sources remain.

	tokenString := h.tokens.FromRequest(req, carrier.Token)
	if _, err := h.svc.CheckToken(tokenString); err != nil {
		logger.Log.Debugln("Error calling the `h.svc.CheckToken()`: ", zap.Error(err))
		writeJSON(res, http.StatusUnauthorized, models.MessageResponse{Message: "Unauthorized."})
		return
	}

	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "Hello from protected endpoint."})
}

// Unprotected handles any method on /unprotected.
func (h *handlers) Unprotected(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "Hello from unprotected endpoint."})
}

// GetPing handles GET /ping and reports storage health.
func (h *handlers) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := h.svc.Ping(req.Context()); err != nil {
		logger.Log.Debugln("Error calling the `h.svc.Ping()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// assembleBody reads and decodes the request body into target. It
// reports false after writing the failure response; an aborted stream
// gets no response at all.
func (h *handlers) assembleBody(res http.ResponseWriter, req *http.Request, target interface{}) bool {
	err := h.assembler.Assemble(req.Context(), req.Body, target)
	if err == nil {
		return true
	}

	logger.Log.Debugln("Error calling the `h.assembler.Assemble()`: ", zap.Error(err))

	if errors.Is(err, bodyreader.ErrStreamAborted) {
		return false
	}

	writeJSON(res, http.StatusBadRequest, models.MessageResponse{Message: "Invalid schema."})

	return false
}

func writeError(res http.ResponseWriter, err error) {
	status := service.StatusForError(err)
	if status == http.StatusInternalServerError {
		http.Error(res, service.MessageForError(err), status)
		return
	}

	writeJSON(res, status, models.MessageResponse{Message: service.MessageForError(err)})
}

func writeJSON(res http.ResponseWriter, status int, payload interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.Encoder.Encode()`: ", zap.Error(err))
	}
}
