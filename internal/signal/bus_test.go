package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inviteme/backend/internal/domain"
)

func testPayload() Payload {
	return Payload{
		Submission: domain.Submission{
			Email:      "jane.bloggs@example.com",
			SubmitDate: time.Now().UTC(),
		},
		RemoteAddr: "198.51.100.7",
	}
}

func TestBus_PublishWithoutReceivers(t *testing.T) {
	// no receivers means nothing objects
	bus := NewBus()
	assert.True(t, bus.Publish(ConfirmationWillBeRequested, testPayload()))
}

func TestBus_ReceiversAreCalled(t *testing.T) {
	bus := NewBus()
	var seen []Event
	bus.Subscribe(ConfirmationRequested, func(event Event, payload Payload) bool {
		seen = append(seen, event)
		return true
	})

	bus.Publish(ConfirmationRequested, testPayload())
	bus.Publish(ConfirmationRequested, testPayload())
	assert.Len(t, seen, 2)
}

func TestBus_VetoBySingleReceiver(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(ConfirmationWillBeRequested, func(Event, Payload) bool { return true })
	bus.Subscribe(ConfirmationWillBeRequested, func(Event, Payload) bool { return false })

	third := false
	bus.Subscribe(ConfirmationWillBeRequested, func(Event, Payload) bool {
		third = true
		return true
	})

	// one veto overrules every approval, but every receiver still runs
	assert.False(t, bus.Publish(ConfirmationWillBeRequested, testPayload()))
	assert.True(t, third)
}

func TestBus_EventsAreIndependent(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(ConfirmationWillBeRequested, func(Event, Payload) bool { return false })

	// a veto on one event does not leak into another
	assert.True(t, bus.Publish(ConfirmationReceived, testPayload()))
}

func TestBus_PayloadCarriesSubmission(t *testing.T) {
	bus := NewBus()
	var got Payload
	bus.Subscribe(ConfirmationReceived, func(_ Event, payload Payload) bool {
		got = payload
		return true
	})

	want := testPayload()
	bus.Publish(ConfirmationReceived, want)
	assert.Equal(t, want.Submission.Email, got.Submission.Email)
	assert.Equal(t, want.RemoteAddr, got.RemoteAddr)
}
