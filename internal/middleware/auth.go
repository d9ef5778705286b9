package middleware // package middleware contains reusable HTTP middleware functions

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/brightevents/bright-events/internal/auth"
    "github.com/brightevents/bright-events/internal/model"
)

// UserResolver resolves a token subject to an account. Satisfied by
// *repository.UserRepo; tests substitute an in-memory fake.
type UserResolver interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RevocationChecker answers whether a token digest has been logged out.
// Satisfied by *repository.RevocationRepo.
type RevocationChecker interface {
    IsRevoked(ctx context.Context, digest string) (bool, error)
}

// Context keys set by SessionGuard for downstream handlers.
const (
    CtxUserID      = "user_id"      // uint64 subject id
    CtxUserEmail   = "user_email"   // resolved account email
    CtxTokenDigest = "token_digest" // SHA-256 digest of the presented token
)

// SessionGuard returns the middleware protecting every authenticated
// endpoint. Each request passes a linear pipeline: extract the bearer
// token, decode and validate it as a session token, consult the revocation
// ledger, resolve the subject account, then admit the request with the
// identity bound to the context. Every rejection is terminal and performs
// no side effects. The precise failure reason is logged server-side while
// the client sees the uniform "missing/invalid/logged out" message family.
func SessionGuard(secret string, users UserResolver, revoked RevocationChecker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // 1. Extract. The token travels in the Authorization header
            // using the Bearer scheme; that is the documented transport.
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is missing"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            // 2. Decode. Reset tokens fail here on purpose mismatch; they
            // are never acceptable to the session path.
            claims, err := auth.Verify(secret, raw, auth.PurposeSession)
            if err != nil {
                c.Logger().Warnf("session guard: reject token: %v", err)
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is invalid"})
            }

            // 3. Revocation check against the durable ledger.
            digest := auth.Digest(raw)
            isRevoked, err := revoked.IsRevoked(c.Request().Context(), digest)
            if err != nil {
                c.Logger().Errorf("session guard: revocation lookup failed: %v", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization check failed"})
            }
            if isRevoked {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "you are logged out, please log in again"})
            }

            // 4. Resolve the subject. A missing row means the account was
            // removed after issuance; the token no longer means anything.
            u, err := users.GetByID(c.Request().Context(), claims.UserID)
            if err != nil {
                c.Logger().Warnf("session guard: unresolvable subject %d: %v", claims.UserID, err)
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is invalid"})
            }

            // 5. Admit with the identity bound to the request context.
            c.Set(CtxUserID, u.ID)
            c.Set(CtxUserEmail, u.Email)
            c.Set(CtxTokenDigest, digest)
            return next(c)
        }
    }
}
