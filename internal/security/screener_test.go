package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/signal"
)

func TestScreener_Screen(t *testing.T) {
	s := NewScreener()

	tests := []struct {
		name  string
		email string
		ok    bool
	}{
		{"regular address", "alice@example.com", true},
		{"disposable domain", "alice@mailinator.com", false},
		{"disposable domain uppercase", "Alice@MAILINATOR.COM", false},
		{"numeric local part", "12345678901@example.com", false},
		{"long random local part", "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2@example.com", false},
		{"short numeric is fine", "42@example.com", true},
		{"malformed", "no-at-sign", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := s.Screen(tt.email)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestScreener_AddDisposableDomain(t *testing.T) {
	s := NewScreener()

	ok, _ := s.Screen("bob@spamhole.example")
	assert.True(t, ok)

	s.AddDisposableDomain("spamhole.example")
	ok, _ = s.Screen("bob@spamhole.example")
	assert.False(t, ok)
}

func TestScreener_VetoesOnBus(t *testing.T) {
	bus := signal.NewBus()
	bus.Subscribe(signal.ConfirmationWillBeRequested, NewScreener().Receiver())

	allowed := bus.Publish(signal.ConfirmationWillBeRequested, signal.Payload{
		Submission: domain.Submission{Email: "alice@example.com"},
	})
	assert.True(t, allowed)

	allowed = bus.Publish(signal.ConfirmationWillBeRequested, signal.Payload{
		Submission: domain.Submission{Email: "alice@10minutemail.com"},
	})
	assert.False(t, allowed)
}
