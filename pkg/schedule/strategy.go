package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/model"
)

// Kind identifies one of the six ordering strategies.
type Kind int

const (
	SPT  Kind = iota // shortest processing time
	EDF              // earliest deadline first
	WSPT             // weighted shortest processing time
	FCFS             // first come first served
	HPF              // highest priority first
	CR               // critical ratio
)

var ErrUnknownStrategy = errors.New("unknown strategy")

var kinds = []Kind{SPT, EDF, WSPT, FCFS, HPF, CR}

// Kinds returns every strategy in catalog order.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

func (k Kind) String() string {
	switch k {
	case SPT:
		return "spt"
	case EDF:
		return "edf"
	case WSPT:
		return "wspt"
	case FCFS:
		return "fcfs"
	case HPF:
		return "hpf"
	case CR:
		return "cr"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a strategy id like "spt" to its Kind.
func ParseKind(s string) (Kind, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	for _, k := range kinds {
		if k.String() == id {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Sort returns a new slice ordered by the strategy. Ties keep their input order.
// now is only read by CR.
func Sort(k Kind, tasks []model.Task, now time.Time) []model.Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, comparator(k, now))
	return sorted
}

// Arrange orders the incomplete tasks by the strategy and appends the
// completed ones after them in their original relative order.
func Arrange(k Kind, tasks []model.Task, now time.Time) []model.Task {
	incomplete, completed := model.Partition(tasks)
	arranged := make([]model.Task, 0, len(tasks))
	arranged = append(arranged, Sort(k, incomplete, now)...)
	return append(arranged, completed...)
}

func comparator(k Kind, now time.Time) func(a, b model.Task) int {
	switch k {
	case SPT:
		return func(a, b model.Task) int { return cmp.Compare(a.Duration, b.Duration) }
	case EDF:
		return func(a, b model.Task) int { return a.Deadline.Compare(b.Deadline) }
	case WSPT:
		return func(a, b model.Task) int { return cmp.Compare(weight(b), weight(a)) }
	case FCFS:
		return func(a, b model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case HPF:
		return func(a, b model.Task) int { return cmp.Compare(b.Importance, a.Importance) }
	case CR:
		return func(a, b model.Task) int { return cmp.Compare(CriticalRatio(a, now), CriticalRatio(b, now)) }
	}
	panic(fmt.Sprintf("schedule: no comparator for %v", k))
}

// weight is importance per minute of work.
func weight(t model.Task) float64 {
	if t.Duration <= 0 {
		return 0
	}
	return float64(t.Importance) / float64(t.Duration)
}

// CriticalRatio is the time left until the deadline divided by the estimated
// duration, both in milliseconds. Overdue tasks have a negative ratio.
func CriticalRatio(t model.Task, now time.Time) float64 {
	if t.Duration <= 0 {
		return 0
	}
	left := t.Deadline.Sub(now).Milliseconds()
	return float64(left) / float64(t.EstimatedDuration().Milliseconds())
}
