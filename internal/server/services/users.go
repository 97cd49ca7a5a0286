package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/auth"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/ratelimit"
)

const maxEmailLen = 254

// TokenIssuer signs access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	Token     string
	Type      string
	ExpiresAt time.Time
}

type UserService struct {
	deps       Deps
	hasher     auth.Hasher
	tokens     TokenIssuer
	limiter    ratelimit.Limiter
	loginLimit int
}

// NewUserService builds the registration and login service. A loginLimit of
// zero or a nil limiter disables throttling.
func NewUserService(deps Deps, hasher auth.Hasher, tokens TokenIssuer, limiter ratelimit.Limiter, loginLimit int) *UserService {
	if limiter == nil || loginLimit <= 0 {
		limiter = ratelimit.Unlimited{}
	}
	return &UserService{
		deps:       deps.withDefaults(),
		hasher:     hasher,
		tokens:     tokens,
		limiter:    limiter,
		loginLimit: loginLimit,
	}
}

func validateCredentials(email, password string) error {
	v := &common.ValidationError{}

	if email == "" {
		v.Add("email", "required")
	} else if len(email) > maxEmailLen {
		v.Add("email", "too long")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		v.Add("email", "invalid email")
	}

	switch {
	case password == "":
		v.Add("password", "required")
	case len(password) > auth.MaxPasswordBytes:
		v.Add("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}

	return v.OrNil()
}

// Register creates an identity. A taken email yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = s.deps.RepoManager.Users(tx).Create(ctx, &models.User{
			Email:        email,
			PasswordHash: digest,
			CreatedAt:    s.deps.now(),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			s.deps.Audit.Record(ctx, models.AuditEvent{
				Action:     audit.ActionRegister,
				ActorEmail: email,
				Outcome:    models.OutcomeFailure,
				Detail:     "email already registered",
			})
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionRegister,
		ResourceType: "user",
		ResourceID:   user.ID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
	})
	return user, nil
}

// Login checks the credentials and issues an access token. Unknown email and
// wrong password both yield common.ErrInvalidCredentials after one bcrypt
// comparison.
func (s *UserService) Login(ctx context.Context, email, password, clientIP string) (*AccessToken, error) {
	if d := s.limiter.Allow(ctx, "login:"+email+":"+clientIP, s.loginLimit); !d.Allowed {
		s.deps.Audit.Record(ctx, models.AuditEvent{
			Action:     audit.ActionLogin,
			ActorEmail: email,
			Outcome:    models.OutcomeFailure,
			Detail:     "throttled",
		})
		// limiter windows run on wall-clock time
		return nil, &common.TooManyAttemptsError{RetryAfter: d.RetryAfter(time.Now())}
	}

	user, err := s.deps.RepoManager.Users(s.deps.DB).GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	digest := s.hasher.DummyDigest()
	if user != nil {
		digest = user.PasswordHash
	}
	ok := s.hasher.Verify(password, digest)

	if user == nil || !ok {
		s.deps.Audit.Record(ctx, models.AuditEvent{
			Action:     audit.ActionLogin,
			ActorEmail: email,
			Outcome:    models.OutcomeFailure,
			Detail:     "bad credentials",
		})
		return nil, common.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:     audit.ActionLogin,
		ActorID:    user.ID,
		ActorEmail: user.Email,
	})
	return &AccessToken{Token: token, Type: "bearer", ExpiresAt: exp}, nil
}
