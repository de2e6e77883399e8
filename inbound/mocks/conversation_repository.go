package mocks

import (
	"context"

	"github.com/marcelsud/sms-inbox/inbound"
	mock "github.com/stretchr/testify/mock"
)

// ConversationRepository is a mock type for the ConversationRepository interface
type ConversationRepository struct {
	mock.Mock
}

// Upsert provides a mock function with given fields: ctx, update
func (_m *ConversationRepository) Upsert(ctx context.Context, update inbound.ConversationUpdate) (inbound.Conversation, error) {
	ret := _m.Called(ctx, update)

	var r0 inbound.Conversation
	if rf, ok := ret.Get(0).(func(context.Context, inbound.ConversationUpdate) inbound.Conversation); ok {
		r0 = rf(ctx, update)
	} else {
		r0 = ret.Get(0).(inbound.Conversation)
	}

	return r0, ret.Error(1)
}

// NewConversationRepository creates a new mock instance. It registers a
// testing interface and a cleanup that asserts the expectations.
func NewConversationRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *ConversationRepository {
	m := &ConversationRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
