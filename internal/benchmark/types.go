package benchmark

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeUnit is the unit adjusted times are displayed in.
type TimeUnit int

const (
	Nanosecond TimeUnit = iota
	Microsecond
	Millisecond
	Second
)

func (u TimeUnit) String() string {
	switch u {
	case Nanosecond:
		return "ns"
	case Microsecond:
		return "us"
	case Millisecond:
		return "ms"
	case Second:
		return "s"
	default:
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
}

// ParseTimeUnit accepts the short unit names produced by String.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "":
		return Nanosecond, nil
	case "us", "µs":
		return Microsecond, nil
	case "ms":
		return Millisecond, nil
	case "s":
		return Second, nil
	default:
		return Nanosecond, fmt.Errorf("unknown time unit %q", s)
	}
}

// Key identifies a benchmark instantiation independently of its thread count.
type Key struct {
	Name string  `json:"name"`
	Args []int64 `json:"args,omitempty"`
}

// String returns the canonical form "name/arg0/arg1".
func (k Key) String() string {
	if len(k.Args) == 0 {
		return k.Name
	}
	var sb strings.Builder
	sb.WriteString(k.Name)
	for _, a := range k.Args {
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatInt(a, 10))
	}
	return sb.String()
}

// Equal reports whether both keys name the same instantiation.
func (k Key) Equal(o Key) bool {
	if k.Name != o.Name || len(k.Args) != len(o.Args) {
		return false
	}
	for i := range k.Args {
		if k.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

// Run is the record of one completed benchmark instantiation.
type Run struct {
	Key     Key `json:"key"`
	Threads int `json:"threads"`
	// Index is assigned when the record is created and is unique within a
	// RunStore.
	Index      int   `json:"index"`
	Iterations int64 `json:"iterations"`

	// Accumulated times are summed over every participating thread.
	RealAccumulatedTime time.Duration `json:"real_accumulated_time"`
	CPUAccumulatedTime  time.Duration `json:"cpu_accumulated_time"`
	TimeUnit            TimeUnit      `json:"time_unit"`

	// Zero means the benchmark did not report the counter.
	ItemsProcessed int64 `json:"items_processed,omitempty"`
	BytesProcessed int64 `json:"bytes_processed,omitempty"`

	Baseline *Key `json:"baseline,omitempty"`

	ReportLabel   string `json:"label,omitempty"`
	ErrorOccurred bool   `json:"error_occurred,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Name returns the display name, including the thread count when more than
// one thread took part.
func (r Run) Name() string {
	name := r.Key.String()
	if r.Threads > 1 {
		name += "/threads:" + strconv.Itoa(r.Threads)
	}
	return name
}
