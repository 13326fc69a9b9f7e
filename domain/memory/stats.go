package memory

// TypeStats reports index coverage for one entity type.
type TypeStats struct {
	total   int64
	indexed int64
}

// NewTypeStats creates a TypeStats.
func NewTypeStats(total, indexed int64) TypeStats {
	return TypeStats{total: total, indexed: indexed}
}

// Total returns the number of live entries of this type.
func (s TypeStats) Total() int64 { return s.total }

// Indexed returns the number of entries with a stored embedding.
func (s TypeStats) Indexed() int64 { return s.indexed }

// Pending returns how many entries still lack an embedding.
func (s TypeStats) Pending() int64 {
	if s.total < s.indexed {
		return 0
	}
	return s.total - s.indexed
}

// IndexStats is a point-in-time snapshot of index coverage and queue state.
type IndexStats struct {
	messages    TypeStats
	notes       TypeStats
	queueLength int
	draining    bool
}

// NewIndexStats creates an IndexStats snapshot.
func NewIndexStats(messages, notes TypeStats, queueLength int, draining bool) IndexStats {
	return IndexStats{
		messages:    messages,
		notes:       notes,
		queueLength: queueLength,
		draining:    draining,
	}
}

// Messages returns coverage for messages.
func (s IndexStats) Messages() TypeStats { return s.messages }

// Notes returns coverage for notes.
func (s IndexStats) Notes() TypeStats { return s.notes }

// QueueLength returns the number of queued references.
func (s IndexStats) QueueLength() int { return s.queueLength }

// Draining reports whether a drain pass was running when the snapshot was
// taken.
func (s IndexStats) Draining() bool { return s.draining }
