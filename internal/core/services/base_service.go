package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/SscSPs/expense_approval_app/internal/middleware"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SscSPs/expense_approval_app/internal/core/services"

// BaseService provides common functionality for all services
type BaseService struct {
	Users portsrepo.UserReader
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// StartSpan starts a tracing span for a service operation.
func (s *BaseService) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func (s *BaseService) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LoadActor resolves the user performing an operation.
// An unknown user is reported as apperrors.ErrUnauthorized rather than ErrNotFound.
func (s *BaseService) LoadActor(ctx context.Context, userID string) (*domain.User, error) {
	if s.Users == nil {
		return nil, apperrors.NewAppError(500, "user repository not configured", nil)
	}
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %s", apperrors.ErrUnauthorized, userID)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}

// RequireAdmin resolves the actor and checks it administers its company.
func (s *BaseService) RequireAdmin(ctx context.Context, userID string) (*domain.User, error) {
	actor, err := s.LoadActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		s.LogWarn(ctx, "Admin operation denied", slog.String("user_id", userID), slog.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%w: admin role required", apperrors.ErrForbidden)
	}
	return actor, nil
}

// RunInTx runs fn inside a transaction from tm, committing on success and rolling back otherwise.
func RunInTx(ctx context.Context, tm portsrepo.TransactionManager, fn func(tx pgx.Tx) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// no-op once committed
		_ = tm.Rollback(ctx, tx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tm.Commit(ctx, tx)
}
