package partner

import "errors"

var (
	ErrInvalidPercent = errors.New("percentage must be between 0 and 100")
	ErrInvalidAccount = errors.New("connected account id is malformed")
	ErrSelfLink       = errors.New("host cannot link to itself")
	ErrVendorNotFound = errors.New("vendor not found")
	ErrLinkNotFound   = errors.New("referral link not found")
)
