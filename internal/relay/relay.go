// Package relay forwards change-bus events out of the process over Redis
// pub/sub and NATS so other services (notification pushers, analytics) can
// follow domain changes without polling.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// Envelope is the JSON payload written to every target.
type Envelope struct {
	Source string       `json:"source"`
	Event  domain.Event `json:"event"`
	SentAt time.Time    `json:"sentAt"`
}

// Publisher is the subset of *nats.Conn used by the relay.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}

// Options configures a Relay. Nil targets are skipped.
type Options struct {
	Redis   *redis.Client
	NATS    Publisher
	Channel string // redis channel; the NATS subject replaces ':' with '.'
	Buffer  int    // queued events before new ones are dropped
}

// Relay queues bus events and publishes them from a single goroutine so a
// slow broker never blocks a facade call.
type Relay struct {
	redis   *redis.Client
	nats    Publisher
	channel string
	subject string
	source  string
	log     zerolog.Logger

	queue chan domain.Event
	done  chan struct{}
	once  sync.Once
}

// New returns a Relay. Call Run to start publishing.
func New(opts Options, log zerolog.Logger) *Relay {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	return &Relay{
		redis:   opts.Redis,
		nats:    opts.NATS,
		channel: opts.Channel,
		subject: strings.ReplaceAll(opts.Channel, ":", "."),
		source:  uuid.NewString(),
		log:     log.With().Str("component", "relay").Logger(),
		queue:   make(chan domain.Event, opts.Buffer),
		done:    make(chan struct{}),
	}
}

// Source identifies this process in every envelope.
func (r *Relay) Source() string { return r.source }

// Observe is a bus.Observer. It never blocks; when the queue is full the
// event is dropped and counted.
func (r *Relay) Observe(e domain.Event) {
	select {
	case r.queue <- e:
	default:
		relayed.WithLabelValues("queue", "dropped").Inc()
		r.log.Warn().Str("kind", string(e.Kind)).Msg("relay queue full, event dropped")
	}
}

// Run publishes queued events until ctx is done, then drains what is left
// using a short grace period.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case e := <-r.queue:
			r.publish(ctx, e)
		case <-ctx.Done():
			grace, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			r.drain(grace)
			cancel()
			return
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	for {
		select {
		case e := <-r.queue:
			r.publish(ctx, e)
		default:
			return
		}
	}
}

// Wait blocks until Run has returned.
func (r *Relay) Wait() { <-r.done }

func (r *Relay) publish(ctx context.Context, e domain.Event) {
	payload, err := json.Marshal(Envelope{Source: r.source, Event: e, SentAt: time.Now().UTC()})
	if err != nil {
		r.log.Error().Err(err).Msg("encode event")
		return
	}

	if r.redis != nil && r.channel != "" {
		if err := r.redis.Publish(ctx, r.channel, payload).Err(); err != nil {
			relayed.WithLabelValues("redis", "error").Inc()
			r.log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("redis publish failed")
		} else {
			relayed.WithLabelValues("redis", "ok").Inc()
		}
	}
	if r.nats != nil && r.subject != "" {
		if err := r.nats.Publish(r.subject, payload); err != nil {
			relayed.WithLabelValues("nats", "error").Inc()
			r.log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("nats publish failed")
		} else {
			relayed.WithLabelValues("nats", "ok").Inc()
		}
	}
}
