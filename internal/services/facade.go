package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/domain"
	"github.com/tbourn/go-challenge-backend/internal/store"
)

// Identity resolves the acting user for a call.
type Identity interface {
	UserID(ctx context.Context) (string, bool)
}

// Deps are the collaborators shared by every facade.
type Deps struct {
	Store    *store.Store
	Bus      *bus.Bus
	Identity Identity
	Latency  Latency
	Logger   zerolog.Logger
	Validate *validator.Validate
}

// NewValidator returns the validator used for facade inputs.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// facade carries the shared plumbing: latency, atomic store updates, event
// publication, tracing and per-operation metrics.
type facade struct {
	name     string
	store    *store.Store
	bus      *bus.Bus
	identity Identity
	latency  Latency
	log      zerolog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

func newFacade(name string, d Deps) facade {
	v := d.Validate
	if v == nil {
		v = NewValidator()
	}
	return facade{
		name:     name,
		store:    d.Store,
		bus:      d.Bus,
		identity: d.Identity,
		latency:  d.Latency,
		log:      d.Logger.With().Str("component", name).Logger(),
		validate: v,
		tracer:   otel.Tracer("services/" + name),
	}
}

func (f *facade) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// finish records the outcome of op on span and in metrics and returns err.
func (f *facade) finish(span trace.Span, op string, err error) error {
	facadeCalls.WithLabelValues(f.name, op, outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if domain.KindOf(err) == "" {
			f.log.Error().Err(err).Str("op", op).Msg("facade operation failed")
		}
	}
	span.End()
	return err
}

// wait applies the simulated network delay.
func (f *facade) wait(ctx context.Context) error {
	start := time.Now()
	err := f.latency.Wait(ctx)
	simulatedDelay.WithLabelValues(f.name).Observe(time.Since(start).Seconds())
	return err
}

// actor returns the acting user id or ErrNoSession.
func (f *facade) actor(ctx context.Context) (string, error) {
	if f.identity == nil {
		return "", ErrNoSession
	}
	id, ok := f.identity.UserID(ctx)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// mutate waits, applies fn atomically and publishes the events fn returned.
// Events are only published when fn succeeds, after the store lock is released.
func (f *facade) mutate(ctx context.Context, fn func(tx *store.Tx) ([]domain.Event, error)) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	var events []domain.Event
	err := f.store.Update(func(tx *store.Tx) error {
		evs, err := fn(tx)
		if err != nil {
			return err
		}
		now := tx.Now()
		for i := range evs {
			if evs[i].At.IsZero() {
				evs[i].At = now
			}
		}
		events = evs
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range events {
		f.bus.Publish(e)
	}
	return nil
}

// read waits (when delayed reads are wanted) and runs fn against a snapshot.
func (f *facade) read(ctx context.Context, delayed bool, fn func(tx *store.Tx) error) error {
	if delayed {
		if err := f.wait(ctx); err != nil {
			return err
		}
	}
	var err error
	f.store.View(func(tx *store.Tx) { err = fn(tx) })
	return err
}

// check runs struct validation and reports failures as KindInvalid.
func (f *facade) check(v any) error {
	if err := f.validate.Struct(v); err != nil {
		return domain.NewError(domain.KindInvalid, err.Error())
	}
	return nil
}

// actingUser resolves the acting user inside a transaction. A session id that
// does not match a user counts as no session.
func actingUser(tx *store.Tx, id string) (*domain.User, error) {
	u, ok := tx.User(id)
	if !ok {
		return nil, ErrNoSession
	}
	return u, nil
}

func lookupUser(tx *store.Tx, id string) (*domain.User, error) {
	u, ok := tx.User(id)
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func lookupChallenge(tx *store.Tx, id string) (*domain.Challenge, error) {
	c, ok := tx.Challenge(id)
	if !ok {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

// notify inserts a notification and returns the matching event.
func notify(tx *store.Tx, n domain.Notification) domain.Event {
	n.ID = tx.NewID()
	n.CreatedAt = tx.Now()
	tx.InsertNotification(n)
	return domain.Event{Kind: domain.EventNotificationCreated, UserID: n.UserID, OtherUserID: n.FromUserID}
}
