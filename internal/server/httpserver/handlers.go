package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/resilience"
	"github.com/dmitrijs2005/passvault/internal/server/services"
	"github.com/google/uuid"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Health is the view of the datastore the gate and /healthz need.
type Health interface {
	Healthy() bool
	State() resilience.State
}

// Users is the authentication surface used by the handlers.
type Users interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Verify(token string) (string, error)
	Profile(ctx context.Context, userID string) (*models.UserView, error)
}

// Credentials is the credential surface used by the handlers.
type Credentials interface {
	List(ctx context.Context, ownerID string) ([]*models.Credential, error)
	Create(ctx context.Context, ownerID, id string, f models.CredentialFields) (*models.Credential, error)
	Update(ctx context.Context, ownerID, id string, f models.CredentialFields) (*models.Credential, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Credential, error)
	Export(ctx context.Context, ownerID string) (*services.ExportResult, error)
}

// Handler serves the REST API.
type Handler struct {
	users       Users
	credentials Credentials
	health      Health
	production  bool
	logger      logging.Logger
}

func NewHandler(users Users, credentials Credentials, health Health, production bool, logger logging.Logger) *Handler {
	return &Handler{
		users:       users,
		credentials: credentials,
		health:      health,
		production:  production,
		logger:      logger.With("module", "http"),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialRequest struct {
	ID       string `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentialRequest) fields() models.CredentialFields {
	return models.CredentialFields{Site: c.Site, Username: c.Username, Secret: c.Password}
}

type profileResponse struct {
	User *models.UserView `json:"user"`
}

type healthResponse struct {
	State string `json:"state"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	return nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user})
}

func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	items, err := h.credentials.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	c, err := h.credentials.Create(r.Context(), userIDFrom(r.Context()), id, req.fields())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.credentials.Update(r.Context(), userIDFrom(r.Context()), strings.TrimSpace(req.ID), req.fields())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}

	c, err := h.credentials.Delete(r.Context(), userIDFrom(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ExportCredentials(w http.ResponseWriter, r *http.Request) {
	res, err := h.credentials.Export(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !h.health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{State: h.health.State().String()})
}
