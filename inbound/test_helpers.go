package inbound

import "github.com/stretchr/testify/mock"

// MatchUpdate creates a custom matcher for conversation updates in mocks
func MatchUpdate(matcher func(ConversationUpdate) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchAudit creates a custom matcher for audit records in mocks
func MatchAudit(matcher func(AuditRecord) bool) interface{} {
	return mock.MatchedBy(matcher)
}
