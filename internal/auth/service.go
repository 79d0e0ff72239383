package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rms-platform/rms-access/internal/rbac"
	"github.com/rms-platform/rms-access/internal/shared"
)

// AuditPublisher forwards session audit events, typically to a queue.
type AuditPublisher interface {
	PublishSessionEvent(ctx context.Context, event AuditEvent) error
}

// Service wraps authentication business rules.
type Service struct {
	backend Backend
	audit   AuditPublisher
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a new Service. audit may be nil.
func NewService(backend Backend, audit AuditPublisher, ttl time.Duration) *Service {
	return &Service{backend: backend, audit: audit, ttl: ttl, now: time.Now}
}

// Authenticate validates email/password credentials against the backend.
func (s *Service) Authenticate(ctx context.Context, email, password string) (shared.Principal, error) {
	result, err := s.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return shared.Principal{}, shared.ErrInvalidCredentials
		}
		return shared.Principal{}, err
	}
	return s.principal(result), nil
}

// Resume restores a principal from a bearer token issued by the backend.
func (s *Service) Resume(ctx context.Context, token string) (shared.Principal, error) {
	result, err := s.backend.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return shared.Principal{}, shared.ErrSessionExpired
		}
		return shared.Principal{}, err
	}
	if result.Token == "" {
		result.Token = token
	}
	return s.principal(result), nil
}

// RecordEvent publishes a session audit event. Without a publisher it is a no-op.
func (s *Service) RecordEvent(ctx context.Context, event AuditEvent) error {
	if s.audit == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}
	return s.audit.PublishSessionEvent(ctx, event)
}

func (s *Service) principal(result LoginResult) shared.Principal {
	expiresAt := s.now().Add(s.ttl)
	if exp, ok := TokenExpiry(result.Token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	return shared.Principal{
		UserID:    result.ID,
		Email:     result.Email,
		Roles:     rbac.ParseRoles(result.Roles),
		ExpiresAt: expiresAt,
	}
}
