package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"park-ops/internal/logger"
	"park-ops/internal/models"
	"park-ops/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginRequest is either a PIN login for an elevated role or a name
// selection for operators and ticket sales staff.
type LoginRequest struct {
	Role   models.Role `json:"role"`
	PIN    string      `json:"pin,omitempty"`
	UserID int         `json:"userId,omitempty"`
	Name   string      `json:"name,omitempty"`
}

// Authenticator resolves logins to sessions.
type Authenticator struct {
	PINs        map[models.Role]string
	Collections *store.Collections
	Logger      *logger.Logger
}

func NewAuthenticator(pins map[models.Role]string, c *store.Collections, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Authenticator{PINs: pins, Collections: c, Logger: log}
}

// Login checks req and returns the resulting session.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (models.SessionState, error) {
	if !req.Role.Valid() {
		return models.SessionState{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredentials, req.Role)
	}
	if req.Role.Elevated() {
		return a.loginWithPIN(req)
	}
	return a.loginByName(ctx, req)
}

func (a *Authenticator) loginWithPIN(req LoginRequest) (models.SessionState, error) {
	want, ok := a.PINs[req.Role]
	if !ok || want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(req.PIN)) != 1 {
		a.Logger.Warn("AUTH", fmt.Sprintf("Rejected PIN login for role %s", req.Role))
		return models.SessionState{}, ErrInvalidCredentials
	}
	a.Logger.Info("AUTH", fmt.Sprintf("Role %s signed in", req.Role))
	return models.SessionState{Role: req.Role, UserName: string(req.Role)}, nil
}

func (a *Authenticator) loginByName(ctx context.Context, req LoginRequest) (models.SessionState, error) {
	kind := models.StaffOperator
	if req.Role == models.RoleTicketSales {
		kind = models.StaffTicketSales
	}
	staff, err := a.Collections.Staff(ctx, kind)
	if err != nil {
		return models.SessionState{}, err
	}

	name := strings.TrimSpace(req.Name)
	for _, s := range staff {
		if (req.UserID != 0 && s.ID == req.UserID) || (req.UserID == 0 && name != "" && strings.EqualFold(s.Name, name)) {
			a.Logger.Info("AUTH", fmt.Sprintf("%s %q signed in", req.Role, s.Name))
			return models.SessionState{Role: req.Role, UserID: s.ID, UserName: s.Name}, nil
		}
	}
	return models.SessionState{}, fmt.Errorf("%w: no %s named %q", ErrInvalidCredentials, kind, name)
}
