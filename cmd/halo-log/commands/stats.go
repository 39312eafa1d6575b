package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/halo-device/halo-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Kinds             map[string]*KindStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	DeviceID  string
}

// KindStats holds per-kind message and wait statistics.
type KindStats struct {
	Commands  int
	Responses int
	Failures  int
	Outcomes  map[log.Outcome]int

	// resolvedTotal sums the elapsed time of resolved waits.
	resolvedTotal time.Duration
}

// MeanRoundTrip returns the average wait time of resolved waits.
func (k *KindStats) MeanRoundTrip() time.Duration {
	n := k.Outcomes[log.OutcomeResolved]
	if n == 0 {
		return 0
	}
	return k.resolvedTotal / time.Duration(n)
}

// Collect aggregates every event of the capture at path.
func Collect(path string) (*Stats, error) {
	r, err := open(path, log.Filter{})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
		Kinds:             make(map[string]*KindStats),
	}
	err = each(r, func(e log.Event) error {
		stats.add(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.ConnectionID != "" {
		conn, ok := s.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.DeviceID != "" && conn.DeviceID == "" {
			conn.DeviceID = event.DeviceID
		}
	}

	switch {
	case event.Message != nil:
		k := s.kind(event.Message.Kind)
		if event.Message.Type == log.MessageTypeCommand {
			k.Commands++
		} else {
			k.Responses++
			if event.Message.Status == "error" {
				k.Failures++
			}
		}
	case event.Correlation != nil:
		k := s.kind(event.Correlation.ExpectedKind)
		k.Outcomes[event.Correlation.Outcome]++
		if event.Correlation.Outcome == log.OutcomeResolved {
			k.resolvedTotal += event.Correlation.Elapsed
		}
	case event.Error != nil:
		s.Errors++
	}
}

func (s *Stats) kind(name string) *KindStats {
	k, ok := s.Kinds[name]
	if !ok {
		k = &KindStats{Outcomes: make(map[log.Outcome]int)}
		s.Kinds[name] = k
	}
	return k
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprint(w, "=== HALO Protocol Log Statistics ===\n\n")

	if stats.TotalEvents > 0 {
		span := stats.TimeRange.End.Sub(stats.TimeRange.Start)
		fmt.Fprintf(w, "Time Range: %s to %s (%s)\n\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339),
			span.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Total Events: %d\n\n", stats.TotalEvents)

	printCounts(w, "Events by Layer", stats.EventsByLayer,
		[]log.Layer{log.LayerLink, log.LayerWire, log.LayerService})
	printCounts(w, "Events by Category", stats.EventsByCategory,
		[]log.Category{log.CategoryMessage, log.CategoryCorrelation, log.CategoryState, log.CategoryError})
	printCounts(w, "Events by Direction", stats.EventsByDirection,
		[]log.Direction{log.DirectionOut, log.DirectionIn})

	if len(stats.Kinds) > 0 {
		fmt.Fprintln(w, "Kinds:")
		fmt.Fprintf(w, "  %-22s %5s %5s %5s %8s %8s %10s\n", "KIND", "CMD", "RESP", "ERR", "RESOLVED", "TIMEOUT", "MEAN RTT")
		for _, name := range slices.Sorted(maps.Keys(stats.Kinds)) {
			k := stats.Kinds[name]
			fmt.Fprintf(w, "  %-22s %5d %5d %5d %8d %8d %10s\n", name,
				k.Commands, k.Responses, k.Failures,
				k.Outcomes[log.OutcomeResolved], k.Outcomes[log.OutcomeTimeout],
				k.MeanRoundTrip().Round(time.Microsecond))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	ids := slices.SortedFunc(maps.Keys(stats.Connections), func(a, b string) int {
		return stats.Connections[a].FirstSeen.Compare(stats.Connections[b].FirstSeen)
	})
	for _, id := range ids {
		c := stats.Connections[id]
		fmt.Fprintf(w, "  [%s] %d events over %s", shortenConnID(id), c.Events, c.LastSeen.Sub(c.FirstSeen).Round(time.Millisecond))
		if c.DeviceID != "" {
			fmt.Fprintf(w, ", device %s", c.DeviceID)
		}
		fmt.Fprintln(w)
	}

	if stats.Errors > 0 {
		fmt.Fprintf(w, "\nErrors: %d\n", stats.Errors)
	}
}

type label interface {
	comparable
	fmt.Stringer
}

func printCounts[K label](w io.Writer, title string, counts map[K]int, order []K) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range order {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", n)
		}
	}
	fmt.Fprintln(w)
}
