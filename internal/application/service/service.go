// Package service implements the access-application workflow: public intake
// with policy screening, and admin approval that provisions the account and
// its service grants. Approval is the authorization decision that later
// entitles the user to mint device credentials.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	appdomain "access-portal/internal/application/domain"
	apprepo "access-portal/internal/application/repository"
	"access-portal/internal/audit"
	blockrepo "access-portal/internal/blocklist/repository"
	catalogdomain "access-portal/internal/catalog/domain"
	catalogrepo "access-portal/internal/catalog/repository"
	"access-portal/internal/policy/engine"
	"access-portal/internal/security"
	userdomain "access-portal/internal/user/domain"
	userrepo "access-portal/internal/user/repository"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	ErrInvalidApplication  = errors.New("invalid application")
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationDecided  = errors.New("application already decided")
	ErrApplicationRejected = errors.New("application rejected")
	ErrNoServicesRequested = errors.New("no services requested")
)

// Service runs the intake and approval workflow.
type Service struct {
	apps      apprepo.Repository
	users     userrepo.Repository
	catalog   catalogrepo.Repository
	blocklist blockrepo.Repository
	intake    *engine.IntakeEvaluator
	hasher    *security.Hasher
	auditLog  audit.AuditLogger
}

// New returns an application Service.
func New(
	apps apprepo.Repository,
	users userrepo.Repository,
	catalog catalogrepo.Repository,
	blocklist blockrepo.Repository,
	intake *engine.IntakeEvaluator,
	hasher *security.Hasher,
	auditLog audit.AuditLogger,
) *Service {
	return &Service{
		apps:      apps,
		users:     users,
		catalog:   catalog,
		blocklist: blocklist,
		intake:    intake,
		hasher:    hasher,
		auditLog:  auditLog,
	}
}

// Submit records a new access application from the public intake endpoint.
// The source IP is checked against the blocklist and the intake policy;
// blocked sources get ErrApplicationRejected (the application row is still
// recorded, denied, for audit). Policy evaluation failure never denies
// silently; the application is flagged for manual review instead.
func (s *Service) Submit(ctx context.Context, name, email string, services []string, sourceIP string) (*appdomain.Application, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, errors.Join(ErrInvalidApplication, err)
	}
	services = dedupe(services)
	if len(services) == 0 {
		return nil, ErrNoServicesRequested
	}

	unknown := false
	for _, code := range services {
		svc, err := s.catalog.GetService(ctx, code)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			unknown = true
		}
	}

	blocked, err := s.blocklist.IsBlocked(ctx, sourceIP)
	if err != nil {
		return nil, err
	}

	result, evalErr := s.intake.Evaluate(ctx, engine.IntakeInput{
		Email:           email,
		Services:        services,
		SourceIP:        sourceIP,
		SourceBlocked:   blocked,
		UnknownServices: unknown,
	})

	now := time.Now().UTC()
	app := &appdomain.Application{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Services:  services,
		IP:        sourceIP,
		Status:    appdomain.StatusPending,
		CreatedAt: now,
	}
	switch {
	case result.Deny:
		app.Status = appdomain.StatusDenied
		app.Note = "denied at intake"
		app.DecidedAt = &now
	case evalErr != nil:
		app.Note = "screening unavailable; manual review"
	case result.ManualReview:
		app.Note = "flagged for manual review"
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	if app.Status == appdomain.StatusDenied {
		s.audit(ctx, "", "application_denied", app, app.Note)
		return app, ErrApplicationRejected
	}
	s.audit(ctx, "", "application_submitted", app, app.Note)
	return app, nil
}

// ApprovalResult reports what Approve provisioned.
type ApprovalResult struct {
	Application *appdomain.Application
	User        *userdomain.User
	// InitialPassword is set only when Approve created the account. It is
	// shown once to the approving admin for out-of-band delivery and never
	// stored in clear.
	InitialPassword string
}

// Approve accepts a pending application: the applicant's account is created
// if absent, and a grant is recorded for every requested service that exists
// in the catalog. actorID is the deciding admin.
func (s *Service) Approve(ctx context.Context, applicationID, actorID string) (*ApprovalResult, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status != appdomain.StatusPending {
		return nil, ErrApplicationDecided
	}

	user, err := s.users.GetByEmail(ctx, app.Email)
	if err != nil {
		return nil, err
	}
	initialPassword := ""
	now := time.Now().UTC()
	if user == nil {
		initialPassword, err = generatePassword()
		if err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash([]byte(initialPassword))
		if err != nil {
			return nil, err
		}
		user = &userdomain.User{
			ID:           uuid.New().String(),
			Email:        app.Email,
			Name:         app.Name,
			Role:         userdomain.RoleUser,
			PasswordHash: hash,
			Status:       userdomain.UserStatusActive,
			CreatedAt:    now,
		}
		if err := user.Validate(); err != nil {
			return nil, err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	for _, code := range app.Services {
		svc, err := s.catalog.GetService(ctx, code)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			// Unknown codes survive intake only as review-flagged; an
			// admin approving anyway gets the known subset granted.
			continue
		}
		grant := &catalogdomain.Grant{
			ID:          uuid.New().String(),
			UserID:      user.ID,
			ServiceCode: code,
			CreatedAt:   now,
		}
		if err := s.catalog.Grant(ctx, grant); err != nil {
			return nil, err
		}
	}

	n, err := s.apps.Decide(ctx, app.ID, appdomain.StatusApproved, actorID, "", now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrApplicationDecided
	}
	app.Status = appdomain.StatusApproved
	app.DecidedAt = &now
	app.DecidedBy = actorID

	s.audit(ctx, actorID, "application_approved", app, "")
	return &ApprovalResult{Application: app, User: user, InitialPassword: initialPassword}, nil
}

// Deny rejects a pending application with an optional note.
func (s *Service) Deny(ctx context.Context, applicationID, actorID, note string) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return ErrApplicationNotFound
	}
	if app.Status != appdomain.StatusPending {
		return ErrApplicationDecided
	}
	n, err := s.apps.Decide(ctx, app.ID, appdomain.StatusDenied, actorID, note, time.Now().UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrApplicationDecided
	}
	s.audit(ctx, actorID, "application_denied", app, note)
	return nil
}

// List returns applications, optionally filtered by status.
func (s *Service) List(ctx context.Context, status appdomain.Status) ([]*appdomain.Application, error) {
	return s.apps.List(ctx, status)
}

func (s *Service) audit(ctx context.Context, actorID, action string, app *appdomain.Application, metadata string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, actorID, action, "application:"+app.ID, metadata)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func dedupe(services []string) []string {
	seen := make(map[string]bool, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		c := strings.TrimSpace(strings.ToLower(s))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
