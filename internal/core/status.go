package core

type Status string

const (
	StatusUninitialized Status = "Uninitialized"
	StatusLoading       Status = "Loading"
	StatusReady         Status = "Ready"
	StatusRefreshing    Status = "Refreshing"
	StatusError         Status = "Error"
)

// acceptsChanges reports whether filter and page changes may be issued.
// Before the first successful load there is nothing to change.
func (s Status) acceptsChanges() bool {
	return s == StatusReady || s == StatusRefreshing
}

// Code is a stable numeric form for gauges.
func (s Status) Code() int {
	switch s {
	case StatusLoading:
		return 1
	case StatusReady:
		return 2
	case StatusRefreshing:
		return 3
	case StatusError:
		return 4
	default:
		return 0
	}
}
