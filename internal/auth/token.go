package auth // package auth implements the signed token codec and password hashing

import (
    "crypto/sha256" // SHA-256 digest used as the revocation-ledger key
    "encoding/hex"  // hex encoding for digests
    "errors"        // sentinel error definitions and matching
    "time"          // expiry arithmetic

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token purposes. A token is only ever acceptable to a verifier expecting
// the purpose it was minted with: the session guard never admits a reset
// token and the reset flow never accepts a session token. The check is on
// the claim itself, not call-site discipline.
const (
    PurposeSession = "session"
    PurposeReset   = "reset"
)

// Verification failures. These are the only error kinds Verify returns;
// callers translate them into HTTP responses at the boundary.
var (
    ErrTokenMalformed = errors.New("token malformed or signature mismatch")
    ErrTokenExpired   = errors.New("token expired")
    ErrWrongPurpose   = errors.New("token purpose mismatch")
)

// Token is a signed bearer value along with its expiry, returned to callers
// that need to report the expiry (login responses, reset emails).
type Token struct {
    Value string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded, verified content of a token.
type Claims struct {
    UserID  uint64    // subject identity id
    Purpose string    // "session" or "reset"
    Exp     time.Time // absolute expiry embedded at issuance
}

// NewSessionToken builds and signs an HS256 JWT representing an
// authenticated session. Sessions are long-lived (the TTL is measured in
// days); explicit logout via the revocation ledger is the only short-term
// invalidation path.
func NewSessionToken(secret string, userID uint64, ttlDays int) (Token, error) {
    return mint(secret, userID, PurposeSession, time.Duration(ttlDays)*24*time.Hour)
}

// NewResetToken builds and signs a short-lived token whose only power is
// authorizing a password reset for the subject. It shares the signing secret
// with session tokens but carries a distinct purpose claim, so it is
// structurally unacceptable to the session verification path.
func NewResetToken(secret string, userID uint64, ttlMin int) (Token, error) {
    return mint(secret, userID, PurposeReset, time.Duration(ttlMin)*time.Minute)
}

func mint(secret string, userID uint64, purpose string, ttl time.Duration) (Token, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":     userID,
        "purpose": purpose,
        "exp":     exp.Unix(),
        "iat":     now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return Token{}, err
    }
    return Token{Value: signed, Exp: exp}, nil
}

// Verify parses and validates a token string against the expected purpose.
// It returns ErrTokenMalformed when the string cannot be parsed or the
// signature does not match, ErrTokenExpired when the embedded expiry has
// passed, and ErrWrongPurpose when the purpose claim differs from what the
// caller expects. The expiry boundary is exclusive: a token whose expiry
// equals the verification instant is already expired.
func Verify(secret, raw, expectedPurpose string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenMalformed
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return Claims{}, ErrTokenExpired
        }
        return Claims{}, ErrTokenMalformed
    }
    if !tok.Valid {
        return Claims{}, ErrTokenMalformed
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrTokenMalformed
    }

    var userID uint64
    switch sub := mc["sub"].(type) {
    case float64:
        // JSON numbers decode as float64.
        userID = uint64(sub)
    default:
        return Claims{}, ErrTokenMalformed
    }
    expUnix, ok := mc["exp"].(float64)
    if !ok {
        return Claims{}, ErrTokenMalformed
    }
    exp := time.Unix(int64(expUnix), 0).UTC()
    // The library treats exp == now as still valid; this codec does not.
    if !exp.After(time.Now().UTC()) {
        return Claims{}, ErrTokenExpired
    }
    purpose, _ := mc["purpose"].(string)
    if purpose != expectedPurpose {
        return Claims{}, ErrWrongPurpose
    }
    return Claims{UserID: userID, Purpose: purpose, Exp: exp}, nil
}

// Digest returns the SHA-256 hex digest of a token string. The revocation
// ledger stores digests rather than raw tokens so a leaked ledger cannot be
// replayed as live credentials.
func Digest(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
