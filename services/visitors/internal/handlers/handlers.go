package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diagnosis/visitor-desk/internal/http/response"
	"github.com/diagnosis/visitor-desk/pkg/auth"
	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/logger"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/service"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	profileKey
)

type Handlers struct {
	identityService service.IdentityService
	visitorService  service.VisitorService
	userService     service.UserService
	statsService    service.StatsService
	config          *config.Config
}

func New(
	identityService service.IdentityService,
	visitorService service.VisitorService,
	userService service.UserService,
	statsService service.StatsService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		identityService: identityService,
		visitorService:  visitorService,
		userService:     userService,
		statsService:    statsService,
		config:          cfg,
	}
}

// Authenticate resolves the caller for every request. A missing token yields
// the anonymous actor; a bad one is rejected. Authorization is left to the
// services, which see a freshly loaded profile each time.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), domain.Anonymous(), nil)))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.WriteError(w, http.StatusUnauthorized, "Missing or invalid authorization header", response.CodeInvalidToken)
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.WriteError(w, http.StatusUnauthorized, "Token expired", response.CodeExpiredToken)
				return
			}
			response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
			return
		}

		profile, err := h.identityService.ResolveProfile(r.Context(), claims.Sub)
		if err != nil {
			if domain.CodeOf(err) == domain.CodeNotFound {
				response.WriteError(w, http.StatusUnauthorized, "Unknown identity", response.CodeInvalidToken)
				return
			}
			writeServiceError(w, r, err)
			return
		}

		ctx := withActor(r.Context(), profile.Actor(), profile)
		ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
		ctx = context.WithValue(ctx, logger.RoleKey, string(profile.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity rejects requests without a live profile.
func (h *Handlers) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r).Authenticated() {
			response.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withActor(ctx context.Context, actor domain.Actor, profile *domain.Profile) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return context.WithValue(ctx, profileKey, profile)
}

func actorFrom(r *http.Request) domain.Actor {
	if a, ok := r.Context().Value(actorKey).(domain.Actor); ok {
		return a
	}
	return domain.Anonymous()
}

func profileFrom(r *http.Request) *domain.Profile {
	if p, ok := r.Context().Value(profileKey).(*domain.Profile); ok {
		return p
	}
	return nil
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeServiceError renders a service failure. Coded errors keep their code;
// anything else is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Code == domain.CodeNetwork {
			logger.ErrorContext(r.Context(), "Backend failure", "error", err, "path", r.URL.Path)
		}
		msg := de.Message
		if msg == "" {
			msg = de.Error()
		}
		response.WriteCoded(w, string(de.Code), msg, de.Fields)
		return
	}
	logger.ErrorContext(r.Context(), "Unhandled error", "error", err, "path", r.URL.Path)
	response.InternalError(w, "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}
