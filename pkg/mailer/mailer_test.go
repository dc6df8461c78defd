package mailer

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/contactdesk/backend/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "contacts-service"},
		Email: config.EmailConfig{
			Enabled: false,
			From:    "no-reply@contactdesk.local",
		},
	}
}

func TestRenderVerification(t *testing.T) {
	m, err := NewMailer(testConfig())
	if err != nil {
		t.Fatalf("NewMailer: %v", err)
	}

	body, err := m.RenderVerification(VerificationMail{
		To:         "alice@example.com",
		Username:   "alice@example.com",
		VerifyLink: "http://localhost:8080/api/v1/auth/verify/abc123",
	})
	if err != nil {
		t.Fatalf("RenderVerification: %v", err)
	}

	if !strings.Contains(body, "http://localhost:8080/api/v1/auth/verify/abc123") {
		t.Error("Expected body to contain the verification link")
	}
	if !strings.Contains(body, "alice@example.com") {
		t.Error("Expected body to contain the username")
	}
	// sprig's title function should capitalize the app name
	if !strings.Contains(body, "Contacts-Service") {
		t.Errorf("Expected title-cased app name in body, got: %s", body)
	}
}

func TestSendVerificationDisabled(t *testing.T) {
	m, err := NewMailer(testConfig())
	if err != nil {
		t.Fatalf("NewMailer: %v", err)
	}

	// SMTP disabled: send must succeed without a mail server
	err = m.SendVerification(VerificationMail{
		To:         "bob@example.com",
		Username:   "bob@example.com",
		VerifyLink: "http://localhost:8080/api/v1/auth/verify/tok",
	})
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []VerificationMail
}

func (r *recordingSender) SendVerification(mail VerificationMail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, mail)
	return nil
}

func TestDispatcherDeliversAll(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 2, 16)

	for i := 0; i < 10; i++ {
		d.Enqueue(VerificationMail{To: "user@example.com"})
	}
	d.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 10 {
		t.Errorf("Expected 10 delivered mails, got %d", len(sender.sent))
	}
}

type blockingSender struct {
	release chan struct{}
}

func (b *blockingSender) SendVerification(VerificationMail) error {
	<-b.release
	return nil
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{})}
	d := NewDispatcher(sender, 1, 1)

	// First mail occupies the worker, second fills the queue
	d.Enqueue(VerificationMail{To: "a@example.com"})
	d.Enqueue(VerificationMail{To: "b@example.com"})

	// This one must not block even though the queue is full
	done := make(chan struct{})
	go func() {
		d.Enqueue(VerificationMail{To: "c@example.com"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(sender.release)
	d.Close()
}
