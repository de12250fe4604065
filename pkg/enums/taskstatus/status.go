package taskstatus

import "fmt"

// Status is the lifecycle state of a download task.
type Status string

const (
	Pending     Status = "pending"
	Queued      Status = "queued"
	Downloading Status = "downloading"
	Paused      Status = "paused"
	Completed   Status = "completed"
	Failed      Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status accepts no further transitions
// other than deletion.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// Active reports whether the task occupies or may occupy a download slot.
func (s Status) Active() bool {
	return s == Queued || s == Downloading
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Pending, Queued, Downloading, Paused, Completed, Failed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown task status: %s", s)
}

func Values() []Status {
	return []Status{Pending, Queued, Downloading, Paused, Completed, Failed}
}
