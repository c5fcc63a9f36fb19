// Package worker consumes the dispatch queue and delivers campaign email,
// recording each recipient's outcome in the store.
package worker

import (
	"context"
	"time"

	"github.com/prsim/prsim/internal/adapters/mq/queue"
	"github.com/prsim/prsim/internal/domain/model"
	"github.com/prsim/prsim/pkg/logger"
	"github.com/prsim/prsim/pkg/metrics"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecipientStore is the slice of the campaign store the worker writes to.
type RecipientStore interface {
	MarkRecipientSending(ctx context.Context, id string) error
	MarkRecipientSent(ctx context.Context, id string, at time.Time) error
	MarkRecipientFailed(ctx context.Context, id string, errText string) error
	CompleteCampaignIfDone(ctx context.Context, campaignID string) (model.Campaign, bool, error)
}

// Queue defines how the worker receives dispatch items.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Dispatch
}

// Worker runs one send loop until its queue closes or it is shut down.
type Worker struct {
	queue  Queue
	sender Sender
	store  RecipientStore
	name   string

	shutdown chan struct{}
	done     chan struct{}
	log      logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, sender Sender, store RecipientStore, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		sender:   sender,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Named(w.name)
	}
	return w
}

// Run consumes dispatch items until the context is cancelled, the queue
// closes, or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, d)
		}
	}
}

// Shutdown stops the worker and waits for the in-flight item to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) process(ctx context.Context, d queue.Dispatch) {
	if err := w.store.MarkRecipientSending(ctx, d.RecipientID); err != nil {
		// Another worker or a retry already owns this recipient.
		w.log.Warn(ctx, "skipping dispatch",
			logger.String("recipient_id", d.RecipientID),
			logger.Error(err))
		return
	}

	if err := w.sender.Send(ctx, d.Email, d.Subject, d.Body); err != nil {
		metrics.RecordEmailFailed()
		w.log.Warn(ctx, "delivery failed",
			logger.String("recipient_id", d.RecipientID),
			logger.String("email", d.Email),
			logger.Error(err))
		if serr := w.store.MarkRecipientFailed(ctx, d.RecipientID, err.Error()); serr != nil {
			w.log.Error(ctx, "could not record failure", logger.Error(serr))
		}
	} else {
		metrics.RecordEmailSent()
		if serr := w.store.MarkRecipientSent(ctx, d.RecipientID, time.Now().UTC()); serr != nil {
			w.log.Error(ctx, "could not record delivery", logger.Error(serr))
		}
	}

	if _, _, err := w.store.CompleteCampaignIfDone(ctx, d.CampaignID); err != nil {
		w.log.Error(ctx, "could not check campaign completion",
			logger.String("campaign_id", d.CampaignID),
			logger.Error(err))
	}
}
