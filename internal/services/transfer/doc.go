/*
Package transfer orchestrates outgoing transfers over the clearing rails.

Each call to Transfer drives one transaction through

	PENDING -> VALIDATING -> COMPLETED | FAILED

reserving the sender's funds before the rail is called and then either
committing the reservation (rail accepted) or releasing it (rail failed).

Error policy:

  - request validation fails before any transaction exists
  - a refused reservation marks the transaction FAILED and is returned as
    ErrReservationFailed, since nothing needs compensating
  - a rail failure is compensated by releasing the reservation; the
    transaction is FAILED and Transfer returns it without an error
  - a duplicate idempotency key replays the recorded transaction

A wallet commit or release that still fails after its retries is queued as a
models.PendingCommit and completed by the reconciliation worker.
*/
package transfer
