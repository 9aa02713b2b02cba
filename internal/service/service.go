package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iliyamo/campaign-tracker/internal/access"
	"github.com/iliyamo/campaign-tracker/internal/feed"
	"github.com/iliyamo/campaign-tracker/internal/logging"
	"github.com/iliyamo/campaign-tracker/internal/metrics"
	"github.com/iliyamo/campaign-tracker/internal/queue"
	"github.com/iliyamo/campaign-tracker/internal/repository"
)

// TokenConfig controls the identity provider's credentials.
type TokenConfig struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Deps are the collaborators shared by every workflow. Zero-valued optional
// fields get defaults in New.
type Deps struct {
	Stores   Stores
	Tokens   TokenConfig
	Notifier feed.Notifier   // default: in-process
	Events   queue.Publisher // default: discard
	Logger   *logging.Logger // default: discard
	Now      func() time.Time
	NewID    func() string
}

// Services is the full set of workflows.
type Services struct {
	Identity  *IdentityProvider
	Access    *Resolver
	Videos    *VideoWorkflow
	Deletions *DeletionWorkflow
	Team      *TeamWorkflow
	Dashboard *Dashboard
}

// New wires every workflow over d.
func New(d Deps) *Services {
	if d.Notifier == nil {
		d.Notifier = feed.NewLocal()
	}
	if d.Events == nil {
		d.Events = queue.Noop{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	b := &base{Deps: d}

	resolver := &Resolver{base: b}
	identity := &IdentityProvider{base: b, resolver: resolver}
	return &Services{
		Identity:  identity,
		Access:    resolver,
		Videos:    &VideoWorkflow{base: b},
		Deletions: &DeletionWorkflow{base: b},
		Team:      &TeamWorkflow{base: b, accounts: identity},
		Dashboard: &Dashboard{base: b},
	}
}

// base carries the plumbing every workflow shares.
type base struct {
	Deps
}

const sideEffectTimeout = 3 * time.Second

// changed signals live subscribers. It runs after the write committed, so
// a failure is logged and never fails the operation.
func (b *base) changed(ctx context.Context, collections ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := b.Notifier.Notify(ctx, collections...); err != nil {
		b.Logger.WithField("collections", collections).WarnWithErr("change notification failed", err)
	}
}

// emit publishes a workflow event, best-effort like changed.
func (b *base) emit(ctx context.Context, s access.Session, ev queue.Event) {
	ev.ActorUID, ev.ActorEmail = s.UID, s.Email
	ev.OccurredAt = b.Now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := b.Events.Publish(ctx, ev); err != nil {
		b.Logger.WithField("event", ev.Type).WarnWithErr("event publish failed", err)
	}
}

// done records a write operation's outcome.
func (b *base) done(op string, s access.Session, subject string, err error) {
	metrics.RecordOperation(op, outcome(err))
	b.Logger.LogWorkflowEvent(op, s.UID, subject, err)
}

// fresh re-reads the caller's profile so role and suspension reflect the
// store at call time rather than when the session was resolved.
func (b *base) fresh(ctx context.Context, op string, s access.Session) (access.Session, error) {
	if s.Anonymous() {
		return access.Session{}, deny(op, "not signed in")
	}
	p, err := b.Stores.Profiles.Get(ctx, s.UID)
	if errors.Is(err, repository.ErrNotFound) {
		return access.Session{}, deny(op, "profile no longer exists")
	}
	if err != nil {
		return access.Session{}, storeErr(op, err)
	}
	return access.NewSession(s.Identity, p), nil
}

// need fails unless s holds c.
func need(op string, s access.Session, c access.Capability) error {
	if s.Anonymous() {
		return deny(op, "not signed in")
	}
	if !s.Can(c) {
		return deny(op, "requires "+string(c))
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates in and converts failures into a ValidationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "gte":
		return "must be at least " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a URL"
	}
	return "is invalid"
}
