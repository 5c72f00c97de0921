package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/anonto42/bsg-marketplace/backend/internal/models"
	"github.com/anonto42/bsg-marketplace/backend/internal/repositories"
	"github.com/anonto42/bsg-marketplace/backend/pkg/logger"
	"github.com/anonto42/bsg-marketplace/backend/validators"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client from the
// Firebase SDK satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	tokens         *auth.TokenService
	firebaseAuth   IDTokenVerifier
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables federated login.
func NewAuthHandler(userRepo repositories.UserRepository, tokens *auth.TokenService, firebaseAuth IDTokenVerifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		tokens:         tokens,
		firebaseAuth:   firebaseAuth,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth, rateLimit echo.MiddlewareFunc) {
	g.POST("/register", h.Register, rateLimit)
	g.POST("/login", h.Login, rateLimit)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, requireAuth)
	g.PUT("/profile", h.UpdateProfile, requireAuth)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin, rateLimit)
	}
}

// Register creates a local account and signs the new user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	taken := validators.FieldErrors{}
	if exists, err := h.userRepository.EmailExists(ctx, req.Email); err != nil {
		return err
	} else if exists {
		taken.Add("email", "Email already exists")
	}
	if exists, err := h.userRepository.UsernameExists(ctx, req.Username); err != nil {
		return err
	} else if exists {
		taken.Add("username", "Username already exists")
	}
	if len(taken) > 0 {
		return conflict("Username or email already registered", taken)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := h.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return conflict("Username or email already registered", nil)
		}
		return err
	}

	return h.signedIn(c, http.StatusCreated, "User registered successfully", user)
}

// Login exchanges email and password for a token. Unknown, deactivated and
// wrong-password accounts all get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetActiveByEmail(c.Request().Context(), req.Email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.signedIn(c, http.StatusOK, "Login successful", user)
}

// Logout is stateless: the client discards its token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetByID(c.Request().Context(), identity.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "", user)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.userRepository.UpdateProfile(ctx, identity.ID, &req); err != nil {
		return err
	}
	user, err := h.userRepository.GetByID(ctx, identity.ID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Profile updated successfully", user)
}

// FirebaseLogin verifies a Firebase ID token and issues a local token. The
// account is found by Firebase UID, then linked by email, then created.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Firebase account has no email address")
	}

	user, err := h.userRepository.GetByFirebaseUID(ctx, token.UID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user, err = h.linkOrCreate(ctx, token, email)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
	}
	return h.signedIn(c, http.StatusOK, "Login successful", user)
}

func (h *AuthHandler) linkOrCreate(ctx context.Context, token *fbauth.Token, email string) (*models.User, error) {
	user, err := h.userRepository.GetActiveByEmail(ctx, email)
	if err == nil {
		if err := h.userRepository.LinkFirebaseUID(ctx, user.ID, token.UID); err != nil {
			return nil, err
		}
		logger.Info("linked firebase account", "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// Federated accounts never sign in with a password.
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	name, _ := token.Claims["name"].(string)
	first, last := splitName(name)
	uid := token.UID
	user = &models.User{
		Username:     firebaseUsername(email, uid),
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Role:         models.RoleUser,
		IsActive:     true,
		FirebaseUID:  &uid,
	}
	if err := h.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflict("Email already registered", validators.FieldErrors{"email": "Email already exists"})
		}
		return nil, err
	}
	return user, nil
}

func (h *AuthHandler) signedIn(c echo.Context, status int, message string, user *models.User) error {
	token, err := h.tokens.Issue(auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return err
	}
	return success(c, status, message, models.AuthResponse{User: user, Token: token})
}

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// firebaseUsername derives a unique username from the email's local part
// and the Firebase UID.
func firebaseUsername(email, uid string) string {
	local, _, _ := strings.Cut(email, "@")
	local = usernameUnsafe.ReplaceAllString(local, "")
	if len(local) > 30 {
		local = local[:30]
	}
	if local == "" {
		local = "user"
	}
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return local + "_" + uid
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	if first == "" {
		first = "Firebase"
	}
	if last = strings.TrimSpace(last); last == "" {
		last = "User"
	}
	return first, last
}
