package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/telmaril/userapi/internal/config"
	"github.com/telmaril/userapi/internal/user"
)

// Identity is the request-scoped result of a successful authentication.
// The Basic variant fills ID+Email; the Bearer variant fills ID+TokenVersion.
type Identity struct {
	ID           primitive.ObjectID
	Email        string
	TokenVersion int64
}

type identityKey struct{}

// FromContext returns the authenticated identity attached by a gate.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}

func withIdentity(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey{}, id))
}

// Gate intercepts inbound requests and either attaches an Identity to the
// request context or rejects with 401. Gates never surface 500s.
type Gate interface {
	Wrap(next http.Handler) http.Handler
}

// SelectGate picks the gate variant for the configured mode.
func SelectGate(cfg *config.Config, users *user.Service, codec *Codec, logger *zap.SugaredLogger) (Gate, error) {
	switch cfg.AuthMode {
	case config.AuthModeBasic:
		return NewBasicGate(users, logger), nil
	case config.AuthModeBearer:
		return NewBearerGate(users, codec, cfg.EnforceRevocation, logger), nil
	case config.AuthModeNone:
		return NoGate{}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// NoGate is a passthrough for deployments that leave /users unprotected.
type NoGate struct{}

func (NoGate) Wrap(next http.Handler) http.Handler { return next }

// BasicGate authenticates requests with an HTTP Basic email:password pair.
type BasicGate struct {
	users  *user.Service
	logger *zap.SugaredLogger
}

func NewBasicGate(users *user.Service, logger *zap.SugaredLogger) *BasicGate {
	return &BasicGate{users: users, logger: logger}
}

func (g *BasicGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := parseBasic(r.Header.Get("Authorization"))
		if !ok {
			denyBasic(w, "Authentication required")
			return
		}
		u, err := g.users.AuthenticatePassword(r.Context(), email, password)
		if err != nil {
			if errors.Is(err, user.ErrBadCredentials) {
				denyBasic(w, "Invalid email or password")
				return
			}
			// lookup/compare blew up; reject rather than leak a 500
			g.logger.Warnw("basic auth lookup failed", "err", err)
			denyBasic(w, "Invalid authorization header")
			return
		}
		next.ServeHTTP(w, withIdentity(r, &Identity{ID: u.ID, Email: u.Email}))
	})
}

// parseBasic decodes "Basic base64(email:password)". It reports !ok for a
// missing header, wrong scheme, undecodable payload, a pair without ':',
// or an empty email or password; none of those reach the store.
func parseBasic(header string) (email, password string, ok bool) {
	if !strings.HasPrefix(header, "Basic ") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len("Basic "):])
	if err != nil {
		return "", "", false
	}
	pair := string(raw)
	sep := strings.Index(pair, ":")
	if sep < 0 {
		return "", "", false
	}
	email = strings.TrimSpace(pair[:sep])
	password = pair[sep+1:]
	if email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}

func denyBasic(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="User API", charset="UTF-8"`)
	writeMessage(w, http.StatusUnauthorized, msg)
}

// BearerGate authenticates requests with a signed bearer token.
type BearerGate struct {
	users             *user.Service
	codec             *Codec
	enforceRevocation bool
	logger            *zap.SugaredLogger
}

func NewBearerGate(users *user.Service, codec *Codec, enforceRevocation bool, logger *zap.SugaredLogger) *BearerGate {
	return &BearerGate{users: users, codec: codec, enforceRevocation: enforceRevocation, logger: logger}
}

func (g *BearerGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) < 2 {
			writeMessage(w, http.StatusUnauthorized, "No token")
			return
		}
		claims, err := g.codec.Verify(parts[1])
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if g.enforceRevocation {
			u, err := g.users.Get(r.Context(), id)
			if err != nil || u.TokenVersion != claims.TokenVersion {
				if err != nil && !errors.Is(err, user.ErrNotFound) {
					g.logger.Warnw("revocation check failed", "err", err)
				}
				writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
		}
		next.ServeHTTP(w, withIdentity(r, &Identity{ID: id, TokenVersion: claims.TokenVersion}))
	})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
