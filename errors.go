package verifykit

import "errors"

var (
	// ErrInvalidConfig is returned when Verify is called on a Validator
	// whose Config is missing HeloName or MailFrom (and no identities
	// supply them).
	ErrInvalidConfig = errors.New("verifykit: Config requires HeloName and MailFrom or at least one Identity")
)
