package mailer

import (
	"sync"

	"github.com/contactdesk/backend/pkg/logger"
	"go.uber.org/zap"
)

// Dispatcher delivers mail from a bounded queue on a fixed set of workers,
// so a slow SMTP server never blocks request handling.
type Dispatcher struct {
	sender Sender
	queue  chan VerificationMail
	wg     sync.WaitGroup

	closeOnce sync.Once
}

func NewDispatcher(sender Sender, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender: sender,
		queue:  make(chan VerificationMail, queueSize),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for mail := range d.queue {
		if err := d.sender.SendVerification(mail); err != nil {
			logger.GetLogger().Error("Failed to deliver verification mail",
				zap.String("to", mail.To),
				zap.Error(err),
			)
		}
	}
}

// Enqueue schedules one mail for delivery without blocking. When the queue
// is full the mail is dropped and logged; the user can request a resend.
func (d *Dispatcher) Enqueue(mail VerificationMail) {
	select {
	case d.queue <- mail:
	default:
		logger.GetLogger().Warn("Mail queue full, dropping verification mail",
			zap.String("to", mail.To),
		)
	}
}

// Close stops accepting mail and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
