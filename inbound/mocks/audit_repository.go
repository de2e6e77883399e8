package mocks

import (
	"context"

	"github.com/marcelsud/sms-inbox/inbound"
	mock "github.com/stretchr/testify/mock"
)

// AuditRepository is a mock type for the AuditRepository interface
type AuditRepository struct {
	mock.Mock
}

// Append provides a mock function with given fields: ctx, record
func (_m *AuditRepository) Append(ctx context.Context, record inbound.AuditRecord) error {
	ret := _m.Called(ctx, record)
	return ret.Error(0)
}

// NewAuditRepository creates a new mock instance. It registers a testing
// interface and a cleanup that asserts the expectations.
func NewAuditRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuditRepository {
	m := &AuditRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
