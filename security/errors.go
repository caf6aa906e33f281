package security

import "errors"

var (
	ErrSweepFailed     = errors.New("security: acl reconciliation sweep failed")
	ErrUnknownOutboxOp = errors.New("security: unknown acl outbox operation")
)
