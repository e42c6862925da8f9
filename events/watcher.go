// Package events feeds newly inserted chat messages into the message pipeline.
//
// The watcher tails a MongoDB change stream on the messages collection and
// fans events out to a fixed worker pool. Resume tokens are committed in
// arrival order, and only once an event and everything before it has been
// handled, so a restart replays at most the in-flight window.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var (
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "events",
		Name:      "received_total",
		Help:      "Change events read from the messages stream.",
	})
	eventsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "events",
		Name:      "retries_total",
		Help:      "Pipeline attempts repeated after an error.",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kabir",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events skipped after exhausting retries or failing to decode.",
	})
)

// Handler is satisfied by *services.Pipeline.
type Handler interface {
	Handle(ctx context.Context, ev models.MessageEvent) (services.Outcome, error)
}

// Stream is the subset of *mongo.ChangeStream the watcher uses.
type Stream interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	ResumeToken() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

// StreamOpener starts a stream after resumeAfter, or at the current end when
// resumeAfter is nil.
type StreamOpener func(ctx context.Context, resumeAfter bson.Raw) (Stream, error)

// MongoMessageStream watches inserts on coll.
func MongoMessageStream(coll *mongo.Collection) StreamOpener {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	return func(ctx context.Context, resumeAfter bson.Raw) (Stream, error) {
		opts := options.ChangeStream()
		if len(resumeAfter) > 0 {
			opts.SetResumeAfter(resumeAfter)
		}
		cs, err := coll.Watch(ctx, pipeline, opts)
		if err != nil {
			return nil, err
		}
		return cs, nil
	}
}

type Options struct {
	Workers        int
	MaxAttempts    int
	RetryDelay     time.Duration
	ReconnectDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = 5 * time.Second
	}
	return o
}

type Watcher struct {
	open       StreamOpener
	handler    Handler
	checkpoint Checkpoint
	log        *zap.Logger
	opts       Options
}

func NewWatcher(open StreamOpener, handler Handler, checkpoint Checkpoint, log *zap.Logger, opts Options) *Watcher {
	if checkpoint == nil {
		checkpoint = &MemoryCheckpoint{}
	}
	return &Watcher{open: open, handler: handler, checkpoint: checkpoint, log: log, opts: opts.withDefaults()}
}

type changeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  models.Message `bson:"fullDocument"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

type job struct {
	seq   uint64
	token bson.Raw
	event *models.MessageEvent
}

type completion struct {
	seq   uint64
	token bson.Raw
	// committable is false when the event was interrupted by shutdown and
	// must be delivered again.
	committable bool
}

// Run consumes the stream until ctx is cancelled, reconnecting after errors.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("message watcher started", zap.Int("workers", w.opts.Workers), zap.Int("max_attempts", w.opts.MaxAttempts))
	for {
		err := w.consume(ctx)
		if ctx.Err() != nil {
			w.log.Info("message watcher stopped")
			return nil
		}
		w.log.Error("message stream ended, reconnecting", zap.Error(err), zap.Duration("delay", w.opts.ReconnectDelay))
		select {
		case <-time.After(w.opts.ReconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// consume runs one stream session and returns once the stream ends and all
// dispatched events have settled.
func (w *Watcher) consume(ctx context.Context) error {
	token, err := w.checkpoint.Load(ctx)
	if err != nil {
		w.log.Warn("loading resume token failed, starting at stream head", zap.Error(err))
		token = nil
	}
	stream, err := w.open(ctx, token)
	if err != nil {
		return err
	}
	defer stream.Close(context.WithoutCancel(ctx))

	jobs := make(chan job, w.opts.Workers)
	done := make(chan completion, w.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < w.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				ok := true
				if j.event != nil {
					ok = w.process(ctx, *j.event)
				}
				done <- completion{seq: j.seq, token: j.token, committable: ok}
			}
		}()
	}
	committed := make(chan struct{})
	go func() {
		defer close(committed)
		w.commit(ctx, done)
	}()

	var seq uint64
	for stream.Next(ctx) {
		seq++
		eventsReceived.Inc()
		j := job{seq: seq, token: append(bson.Raw(nil), stream.ResumeToken()...)}

		var ce changeEvent
		if err := stream.Decode(&ce); err != nil {
			eventsDropped.Inc()
			w.log.Error("undecodable change event skipped", zap.Error(err))
		} else {
			id := ce.DocumentKey.ID
			if id == "" {
				id = ce.FullDocument.ID
			}
			msg := ce.FullDocument
			msg.ID = id
			j.event = &models.MessageEvent{ChatID: msg.ChatID, MessageID: id, Message: msg}
		}

		select {
		case jobs <- j:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	close(done)
	<-committed

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return stream.Err()
}

// process runs the handler with bounded retries. It returns false only when
// shutdown interrupted the event.
func (w *Watcher) process(ctx context.Context, ev models.MessageEvent) bool {
	log := w.log.With(zap.String("chat_id", ev.ChatID), zap.String("message_id", ev.MessageID))
	for attempt := 1; ; attempt++ {
		_, err := w.handler.Handle(ctx, ev)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt >= w.opts.MaxAttempts {
			eventsDropped.Inc()
			log.Error("message event dropped after retries", zap.Int("attempts", attempt), zap.Error(err))
			return true
		}
		eventsRetried.Inc()
		log.Warn("message event failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(w.opts.RetryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return false
		}
	}
}

// commit advances the checkpoint over the contiguous prefix of settled
// events. An interrupted event blocks every later token.
func (w *Watcher) commit(ctx context.Context, done <-chan completion) {
	saveCtx := context.WithoutCancel(ctx)
	pending := map[uint64]completion{}
	next := uint64(1)
	blocked := false

	for c := range done {
		pending[c.seq] = c
		var last bson.Raw
		for !blocked {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if !p.committable {
				blocked = true
				break
			}
			if len(p.token) > 0 {
				last = p.token
			}
			next++
		}
		if last == nil {
			continue
		}
		sctx, cancel := context.WithTimeout(saveCtx, 5*time.Second)
		if err := w.checkpoint.Save(sctx, last); err != nil {
			w.log.Warn("saving resume token failed", zap.Error(err))
		}
		cancel()
	}
}
