package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "regexp"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/brightevents/bright-events/internal/auth"
    "github.com/brightevents/bright-events/internal/config"
    "github.com/brightevents/bright-events/internal/model"
    "github.com/brightevents/bright-events/internal/queue"
    "github.com/brightevents/bright-events/internal/repository"
    "github.com/brightevents/bright-events/internal/service"
)

// UserStore is the credential-store contract the auth handler depends on.
// Satisfied by *repository.UserRepo; tests use an in-memory fake.
type UserStore interface {
    Create(ctx context.Context, username, email, password string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    SetPassword(ctx context.Context, id uint64, newPassword string, cost int) error
}

// Revoker is the write side of the revocation ledger.
type Revoker interface {
    Revoke(ctx context.Context, digest string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
    Cfg       config.Config
    Users     UserStore
    Revoked   Revoker
    Publisher service.Publisher
}

func NewAuthHandler(cfg config.Config, users UserStore, revoked Revoker, pub service.Publisher) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: users, Revoked: revoked, Publisher: pub}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type acquireTokenReq struct {
    Email string `json:"email"`
}
type resetPasswordReq struct {
    Token    string `json:"token"`
    Password string `json:"password"`
}

var (
    usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
    emailRe    = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.[\w]+$`)
)

const minPasswordLen = 6

// Register creates an account. A duplicate email answers 202 with an
// explanatory message rather than an error status: the condition is
// non-fatal and user-correctable.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Username == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email and password are required"})
    }
    if !usernameRe.MatchString(req.Username) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username may contain letters, digits and underscore only"})
    }
    if !emailRe.MatchString(req.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "please enter a valid email"})
    }
    if len(req.Password) < minPasswordLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusAccepted, echo.Map{
                "message": "a user already exists with that email address, choose another email",
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "you have been registered successfully and can proceed to login",
    })
}

// Login verifies credentials and issues a long-lived session token.
// Unknown email and wrong password answer the same way so the endpoint
// does not reveal which of the two was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !auth.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    tok, err := auth.NewSessionToken(h.Cfg.JWTSecret, u.ID, h.Cfg.SessionTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "token":   tok.Value,
        "expires": tok.Exp,
    })
}

// Logout revokes the presented session token. The route sits behind the
// session guard, so an expired, malformed or already-revoked token is
// rejected with 401 before reaching here; logging out is only possible
// with a token that is currently valid. The guard leaves the token digest
// in the context, and the insert is durable before the response goes out.
func (h *AuthHandler) Logout(c echo.Context) error {
    digest, ok := c.Get("token_digest").(string)
    if !ok || digest == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is missing"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Revoked.Revoke(ctx, digest); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "you have been logged out successfully"})
}

// AcquireToken starts the password-reset flow. It mints a short-lived
// reset-purpose token and hands it to the mail queue; the raw token goes
// only into the queued mail payload, never into the HTTP response. A
// publish failure is logged but does not fail the request, since delivery
// is asynchronous by contract.
func (h *AuthHandler) AcquireToken(c echo.Context) error {
    var req acquireTokenReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no user found with that email address"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    tok, err := auth.NewResetToken(h.Cfg.JWTSecret, u.ID, h.Cfg.ResetTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    now := time.Now().UTC()
    if err := h.Publisher.PublishPasswordReset(ctx, queue.PasswordResetRequested{
        UserID:      u.ID,
        Email:       u.Email,
        Username:    u.Username,
        ResetToken:  tok.Value,
        ExpiresAt:   tok.Exp.Format(time.RFC3339),
        RequestedAt: now.Format(time.RFC3339),
    }); err != nil {
        c.Logger().Errorf("acquire_token: publish reset mail for user %d failed: %v", u.ID, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "a password reset link has been sent to your email address",
    })
}

// ResetPassword consumes a reset token and replaces the password hash.
// Session tokens are rejected here on purpose mismatch, exactly as reset
// tokens are rejected by the guard. Outstanding sessions stay valid after
// the change; the client is directed to log in with the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetPasswordReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Token = strings.TrimSpace(req.Token)
    if req.Token == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
    }

    claims, err := auth.Verify(h.Cfg.JWTSecret, req.Token, auth.PurposeReset)
    if err != nil {
        c.Logger().Warnf("reset_password: reject token: %v", err)
        return c.JSON(http.StatusForbidden, echo.Map{"error": "the reset token is invalid or has expired"})
    }
    if len(req.Password) < minPasswordLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Users.GetByID(ctx, claims.UserID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "the reset token is invalid or has expired"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if err := h.Users.SetPassword(ctx, claims.UserID, req.Password, h.Cfg.BcryptCost); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "your password has been updated successfully, proceed to login",
    })
}

// Me returns the authenticated identity bound by the guard.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": c.Get("user_id"),
        "email":   c.Get("user_email"),
    })
}
