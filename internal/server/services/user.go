package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string           `json:"token"`
	User  *models.UserView `json:"user"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - Verify: resolve a bearer token to a user id
// - Profile: load the caller's account
type UserService struct {
	store         Store
	jwtSecret     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

// NewUserService constructs a UserService using the store and server config.
func NewUserService(store Store, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		store:         store,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		logger:        logger.With("module", "users"),
	}
}

// dummyHash is compared against when the email is unknown so that both
// login failure paths run one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	pw, err := common.MakeRandHexString(16)
	if err != nil {
		panic(err)
	}
	h, err := auth.HashPassword(pw)
	if err != nil {
		panic(err)
	}
	return h
})

// Register creates a new account and returns a token for it.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrorValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	user, err := conn.Users().Create(ctx, &models.User{Email: email, PasswordHash: hash, Name: name})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email is already registered", common.ErrorAlreadyExists)
		}
		return nil, storeError(s.store, err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login checks email and password. Unknown email and wrong password yield
// the same common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	user, err := conn.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(dummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, storeError(s.store, err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// Verify returns the user id carried by a valid token.
func (s *UserService) Verify(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// Profile loads the account of userID.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.UserView, error) {
	conn, err := s.store.Conn()
	if err != nil {
		return nil, err
	}

	user, err := conn.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, storeError(s.store, err)
	}
	return user.View(), nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &AuthResult{Token: token, User: user.View()}, nil
}
