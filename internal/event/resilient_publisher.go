package event

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/DCM_Go/internal/logger"
)

// retryEntry is an event waiting for another publish attempt
type retryEntry struct {
	event    Event
	attempts int
	lastErr  error
}

// ResilientPublisher wraps a Bus with background retries and a dead-letter
// file. Callers are never blocked by a failing subscriber: the first attempt
// runs inline and failures are retried by a single worker with exponential
// backoff. It satisfies Bus so services can depend on either.
type ResilientPublisher struct {
	bus        Bus
	retryQueue chan retryEntry
	maxRetries int
	retryDelay time.Duration
	deadLetter *DeadLetterWriter

	shutdown     chan struct{}
	shutdownOnce sync.Once
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

// NewResilientPublisher starts the retry worker
func NewResilientPublisher(bus Bus, maxRetries int, retryDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dl, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}

	p := &ResilientPublisher{
		bus:        bus,
		retryQueue: make(chan retryEntry, RetryQueueBufferSize),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		deadLetter: dl,
		shutdown:   make(chan struct{}),
	}

	p.wg.Add(1)
	go p.retryWorker()
	return p, nil
}

// PublishWithRetry publishes once and hands failures to the retry worker
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	err := p.bus.Publish(ctx, event)
	if err == nil {
		return
	}

	logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "event_type", event.Type, "error", err)

	select {
	case p.retryQueue <- retryEntry{event: event, attempts: 1, lastErr: err}:
	default:
		logger.FromContext(ctx).Error(LogMsgRetryQueueFull, "event_type", event.Type)
		p.writeDeadLetter(retryEntry{event: event, attempts: 1, lastErr: err})
	}
}

// Publish implements Bus. Delivery failures are handled asynchronously and
// never reported to the caller.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	p.PublishWithRetry(ctx, event)
	return nil
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.bus.Subscribe(eventType, handler)
}

func (p *ResilientPublisher) retryWorker() {
	defer p.wg.Done()

	for {
		select {
		case entry := <-p.retryQueue:
			p.retry(entry, false)
		case <-p.shutdown:
			// drain without waiting for backoff
			for {
				select {
				case entry := <-p.retryQueue:
					p.retry(entry, true)
				default:
					return
				}
			}
		}
	}
}

// retry keeps attempting one event until it succeeds or runs out of retries.
// During shutdown the backoff is skipped.
func (p *ResilientPublisher) retry(entry retryEntry, draining bool) {
	for retryNum := 1; retryNum <= p.maxRetries; retryNum++ {
		if !draining {
			timer := time.NewTimer(CalculateRetryDelay(p.retryDelay, retryNum))
			select {
			case <-timer.C:
			case <-p.shutdown:
				timer.Stop()
				draining = true
			}
		}

		entry.attempts++
		err := p.bus.Publish(context.Background(), entry.event)
		if err == nil {
			logger.Info(LogMsgEventRetrySucceeded, "event_type", entry.event.Type, "attempts", entry.attempts)
			return
		}
		entry.lastErr = err
		logger.Warn(LogMsgEventRetryFailed, "event_type", entry.event.Type, "attempts", entry.attempts, "error", err)
	}

	logger.Error(LogMsgEventRetryExhausted, "event_type", entry.event.Type, "attempts", entry.attempts)
	p.writeDeadLetter(entry)
}

func (p *ResilientPublisher) writeDeadLetter(entry retryEntry) {
	if p.deadLetter == nil {
		return
	}
	if err := p.deadLetter.Write(entry.event, entry.attempts, entry.lastErr); err != nil {
		logger.Error(LogMsgDeadLetterWriteFailed, "event_type", entry.event.Type, "error", err)
	}
}

// Shutdown stops accepting retries, drains the queue and closes the dead-letter file
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}

	var err error
	p.closeOnce.Do(func() {
		if p.deadLetter != nil {
			err = p.deadLetter.Close()
		}
	})
	return err
}
