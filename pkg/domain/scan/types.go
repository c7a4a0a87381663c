package scan

// Status represents the lifecycle state of a scan.
//
// Pending, Running and Done are the states this system reasons about.
// Any other scanner-native status (Stopped, Interrupted, Requested, ...)
// passes through unchanged so status drift stays visible.
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusDone    Status = "Done"
)

// IsTerminal reports whether the status is the terminal Done state.
func (s Status) IsTerminal() bool {
	return s == StatusDone
}

// StatusFromExternal maps a scanner-native status string onto a Status.
// Unknown statuses are carried verbatim.
func StatusFromExternal(raw string) Status {
	switch raw {
	case "New", "Requested", "pending", "Pending":
		return StatusPending
	case "Running", "Queued":
		return StatusRunning
	case "Done":
		return StatusDone
	default:
		return Status(raw)
	}
}
