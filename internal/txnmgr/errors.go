package txnmgr

import "errors"

// Sentinel errors for the seven abort/usage-error kinds from the spec (§7).
// A transaction's abort reason and the trace's Reason field hold the Error()
// text of one of these values, not the error itself; callers distinguish
// kinds by comparing that text against Err*.Error().
var (
	ErrNoCommittedVersion   = errors.New("no committed version")
	ErrNoSnapshotAtHome     = errors.New("no snapshot at home")
	ErrNoAvailableSnap      = errors.New("no available snapshot")
	ErrNoSiteUpForWrite     = errors.New("no site up for write")
	ErrSiteFailedAfterWrite = errors.New("site failed after write")
	ErrFirstCommitterWins   = errors.New("first-committer-wins")
	ErrSSICycle             = errors.New("SSI cycle")

	// Usage errors: malformed or out-of-protocol input. These never abort a
	// transaction (there may be none to abort); they are reported to the
	// trace and otherwise ignored.
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrUnknownSite        = errors.New("unknown site")
	ErrUnknownCommand     = errors.New("unrecognized command")

	ErrTxAlreadyDone = errors.New("transaction already committed or aborted")
)
