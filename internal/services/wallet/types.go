package wallet

import "time"

// WalletConfig holds configuration for wallet operations
type WalletConfig struct {
	DefaultCurrency string
	// MaxRetries bounds the compare-and-set attempts of one mutation.
	MaxRetries   int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordConflict(operation string)
	RecordError(operation, errType string)
}

type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "RESERVED"
	ReservationFailed   ReservationStatus = "FAILED"
)

// ReserveResult is the answer of Port.ReserveBalance. A FAILED status
// means the wallet refused the reservation; Reason says why.
type ReserveResult struct {
	ReservationID string            `json:"reservation_id,omitempty"`
	Status        ReservationStatus `json:"status"`
	Reason        string            `json:"reason,omitempty"`
}
