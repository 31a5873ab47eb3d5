package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanshika/finadvisor/backend/internal/advice"
	"github.com/vanshika/finadvisor/backend/internal/domain"
	"github.com/vanshika/finadvisor/backend/internal/service"
)

const maxBodyBytes = 1 << 20

// AccountService is the registration and session surface used by the API.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	CurrentAccount(ctx context.Context, token string) (domain.Account, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

// ProfileService is the financial profile surface used by the API.
type ProfileService interface {
	Profile(ctx context.Context, accountID string) (domain.FinancialProfile, error)
	UpdateProfile(ctx context.Context, accountID string, patch domain.ProfilePatch) (domain.FinancialProfile, error)
	RetirementGoals(ctx context.Context, accountID string) (domain.RetirementGoals, error)
	UpdateRetirementGoals(ctx context.Context, accountID string, patch domain.RetirementGoalsPatch) (domain.RetirementGoals, error)
	RetirementAdvice(ctx context.Context, accountID string) (advice.Analysis, error)
	Project(ctx context.Context, accountID string, in service.ProjectionInput) (service.Projection, error)
}

// SettingsService is the preferences surface used by the API.
type SettingsService interface {
	Settings(ctx context.Context, accountID string) (domain.Settings, error)
	UpdateSettings(ctx context.Context, accountID string, patch domain.SettingsPatch) (domain.Settings, error)
}

// AuthRecorder counts register and login outcomes.
type AuthRecorder interface {
	AuthAttempt(action string, success bool)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger       *slog.Logger
	accounts     AccountService
	profiles     ProfileService
	settings     SettingsService
	recorder     AuthRecorder
	validator    *requestValidator
	exposeErrors bool
}

// HandlerOption customises APIHandlers.
type HandlerOption func(*APIHandlers)

// WithAuthRecorder counts authentication outcomes.
func WithAuthRecorder(rec AuthRecorder) HandlerOption {
	return func(h *APIHandlers) { h.recorder = rec }
}

// WithErrorDetails adds the underlying error text to 500 responses. Only
// enable it in development.
func WithErrorDetails(enabled bool) HandlerOption {
	return func(h *APIHandlers) { h.exposeErrors = enabled }
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, accounts AccountService, profiles ProfileService, settings SettingsService, opts ...HandlerOption) (*APIHandlers, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	h := &APIHandlers{
		logger:    logger,
		accounts:  accounts,
		profiles:  profiles,
		settings:  settings,
		validator: validator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type registerRequest struct {
	Email            string              `json:"email"`
	Password         string              `json:"password"`
	FinancialProfile domain.ProfilePatch `json:"financialProfile"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type projectionRequest struct {
	CurrentAge          *int                  `json:"currentAge"`
	RetirementAge       *int                  `json:"retirementAge"`
	MonthlyContribution *float64              `json:"monthlyContribution"`
	RiskLevel           *domain.RiskTolerance `json:"riskLevel"`
}

type userView struct {
	ID               string                  `json:"id"`
	Email            string                  `json:"email"`
	FinancialProfile domain.FinancialProfile `json:"financialProfile"`
	Settings         domain.Settings         `json:"settings"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

type sessionResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type adviceResponse struct {
	Analysis advice.Analysis `json:"analysis"`
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func newUserView(a domain.Account) userView {
	return userView{
		ID:               a.ID,
		Email:            a.Email,
		FinancialProfile: a.Profile.WithDefaults(),
		Settings:         a.Settings,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (h *APIHandlers) register(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := h.decodeBody(w, r, "register", &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Profile:  payload.FinancialProfile,
	})
	h.recordAuth("register", err == nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, User: newUserView(session.Account)})
}

func (h *APIHandlers) login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := h.decodeBody(w, r, "login", &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), payload.Email, payload.Password)
	h.recordAuth("login", err == nil)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Token: session.Token, User: newUserView(session.Account)})
}

func (h *APIHandlers) me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	account, err := h.accounts.CurrentAccount(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserView(account))
}

func (h *APIHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Profile(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := h.decodeBody(w, r, "profile", &patch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	profile, err := h.profiles.UpdateProfile(r.Context(), accountID(r), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) getRetirement(w http.ResponseWriter, r *http.Request) {
	goals, err := h.profiles.RetirementGoals(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (h *APIHandlers) updateRetirement(w http.ResponseWriter, r *http.Request) {
	var patch domain.RetirementGoalsPatch
	if err := h.decodeBody(w, r, "retirement", &patch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	goals, err := h.profiles.UpdateRetirementGoals(r.Context(), accountID(r), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

func (h *APIHandlers) retirementAdvice(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.profiles.RetirementAdvice(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, adviceResponse{Analysis: analysis})
}

func (h *APIHandlers) projection(w http.ResponseWriter, r *http.Request) {
	var payload projectionRequest
	if err := h.decodeBody(w, r, "projection", &payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	projection, err := h.profiles.Project(r.Context(), accountID(r), service.ProjectionInput{
		CurrentAge:          payload.CurrentAge,
		RetirementAge:       payload.RetirementAge,
		MonthlyContribution: payload.MonthlyContribution,
		RiskLevel:           payload.RiskLevel,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projection)
}

func (h *APIHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Settings(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *APIHandlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := h.decodeBody(w, r, "settings", &patch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	settings, err := h.settings.UpdateSettings(r.Context(), accountID(r), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// authGate admits only requests carrying a valid bearer token for an account
// that still exists, and threads the account id into the request context.
func (h *APIHandlers) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		id, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAccountID(r.Context(), id)))
	})
}

// decodeBody reads the request body, validates it against the named schema
// and decodes it into dst. An empty body is treated as an empty object.
func (h *APIHandlers) decodeBody(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	var raw []byte
	if r.Body != nil {
		var err error
		raw, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			return domain.Invalid("", "request body could not be read")
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Invalid("", "request body must be valid JSON")
	}
	if err := h.validator.validate(schema, doc); err != nil {
		return err
	}
	if err := decodeJSON(bytes.NewReader(raw), dst); err != nil {
		return domain.Invalid("", "invalid request body: %v", err)
	}
	return nil
}

func (h *APIHandlers) recordAuth(action string, success bool) {
	if h.recorder != nil {
		h.recorder.AuthAttempt(action, success)
	}
}

// writeServiceError maps domain error kinds onto HTTP responses. Messages for
// credential and token failures are deliberately generic.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		var vErr *domain.ValidationError
		msg := "Invalid request"
		if errors.As(err, &vErr) {
			msg = vErr.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		if err != domain.ErrUnauthorized {
			h.logger.Warn("credential check failed", "error", err, "path", r.URL.Path)
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		h.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"userId", accountID(r),
		)
		resp := messageResponse{Message: "Server error"}
		if h.exposeErrors {
			resp.Error = err.Error()
		}
		respondJSON(w, http.StatusInternalServerError, resp)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return "", false
	}
	return token, true
}

type ctxKey int

const accountIDKey ctxKey = iota

func withAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

func accountID(r *http.Request) string {
	id, _ := r.Context().Value(accountIDKey).(string)
	return id
}

func decodeJSON(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, messageResponse{Message: msg})
}
