package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-room-service/internal/mocks"
	"chat-room-service/internal/telemetry"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chat", "chat-room-service", "test")

	memberID := "member-42"
	publisher.On("Publish", mock.Anything, "audit_log.chat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "chat-room-service" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.MemberID != nil && *envelope.MemberID == "member-42" &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "room deleted" &&
			envelope.OccurredAt != ""
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "room deleted", "req-1", &memberID)
	publisher.AssertExpectations(t)
}

func TestAuditEmitterNilSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "req-1", nil)
	})
}
