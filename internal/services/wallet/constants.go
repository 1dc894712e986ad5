package wallet

import "time"

// Default configuration values
const (
	DefaultCurrency     = "IDR"
	DefaultMaxRetries   = 10
	DefaultRetryBackoff = 5 * time.Millisecond
	DefaultMaxBackoff   = 100 * time.Millisecond
)

// Operation names used for metrics
const (
	OpReserve = "reserve"
	OpCommit  = "commit"
	OpRelease = "release"
	OpDeposit = "deposit"
)
