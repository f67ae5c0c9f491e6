package mail

import (
	"context"
	"sync"

	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

type job struct {
	ctx context.Context
	msg Message
}

// Dispatcher renders and sends mail on a fixed set of workers. Requests
// never wait for delivery: when the queue is full the message is dropped
// and a warning is logged.
type Dispatcher struct {
	sender        Sender
	renderer      *Renderer
	subjectPrefix string
	defaults      map[string]any
	onDrop        func()

	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines. defaults are merged into the
// data of every template.
func NewDispatcher(sender Sender, renderer *Renderer, subjectPrefix string, workers, queueSize int, defaults map[string]any) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender:        sender,
		renderer:      renderer,
		subjectPrefix: subjectPrefix,
		defaults:      defaults,
		queue:         make(chan job, queueSize),
		onDrop:        func() {},
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// OnDrop sets a callback run for every dropped message.
func (d *Dispatcher) OnDrop(fn func()) {
	if fn != nil {
		d.onDrop = fn
	}
}

// SendTemplate renders template and queues the result for to.
func (d *Dispatcher) SendTemplate(ctx context.Context, to, subject, template string, data map[string]any) {
	ctx = ctxutil.WithFunction(ctx, "mail", "SendTemplate")

	merged := make(map[string]any, len(d.defaults)+len(data))
	for k, v := range d.defaults {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}

	body, err := d.renderer.Render(template, merged)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to render email").
			String("template", template).
			Err(err).
			Log()
		return
	}

	d.Enqueue(ctx, Message{
		To:       []string{to},
		Subject:  d.subjectPrefix + " " + subject,
		TextBody: body,
	})
}

// Enqueue reports whether msg was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.onDrop()
		logger.WarnWithContext(ctx, "Mail dispatcher closed, dropping message").
			String("subject", msg.Subject).
			Log()
		return false
	}

	// Workers must not inherit the request deadline.
	j := job{ctx: context.WithoutCancel(ctx), msg: msg}
	select {
	case d.queue <- j:
		return true
	default:
		d.onDrop()
		logger.WarnWithContext(ctx, "Mail queue full, dropping message").
			String("subject", msg.Subject).
			Int("queue_size", cap(d.queue)).
			Log()
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		if err := d.sender.Send(j.ctx, j.msg); err != nil {
			logger.ErrorWithContext(j.ctx, "Failed to send email").
				Any("to", j.msg.To).
				String("subject", j.msg.Subject).
				Err(err).
				Log()
			continue
		}
		logger.DebugWithContext(j.ctx, "Email sent").
			String("subject", j.msg.Subject).
			Log()
	}
}

// Close stops accepting messages and waits for queued ones to be sent or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
