package entitlement

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrUsageNotFound        = errors.New("usage record not found")
	ErrInvalidUsageKind     = errors.New("invalid usage kind")
)
