package billing

import "errors"

var (
	ErrInvalidBoostType  = errors.New("unknown boost type")
	ErrMalformedEvent    = errors.New("malformed payment event")
	ErrEventVerification = errors.New("payment event verification failed")
	ErrProviderFailure   = errors.New("payment provider request failed")
	ErrNoCheckoutURL     = errors.New("provider returned no checkout URL")
)
