package optimizer

import "time"

// SourceStatEntry is one registered source's statistics, as known to
// Statistics (the default DataStatistics implementation).
type SourceStatEntry struct {
	SourceID       string
	Cardinality    int64
	AvgRecordWidth int64
	TotalBytes     int64

	LastAnalyzed time.Time
}

// Statistics is the default, in-memory DataStatistics implementation
// (spec.md §6): a registry the caller populates up front, with an "unknown"
// sentinel for anything not registered rather than an error, since an
// optimizer must still be able to compile a plan over unmeasured sources by
// falling back to conservative choices.
type Statistics struct {
	sources map[string]*SourceStatEntry
}

// NewStatistics returns an empty statistics registry.
func NewStatistics() *Statistics {
	return &Statistics{sources: make(map[string]*SourceStatEntry)}
}

// GetStats implements DataStatistics.
func (s *Statistics) GetStats(sourceID string) SourceStats {
	entry, ok := s.sources[sourceID]
	if !ok {
		return SourceStats{Known: false}
	}
	return SourceStats{
		Known:          true,
		Cardinality:    entry.Cardinality,
		AvgRecordWidth: entry.AvgRecordWidth,
		NumBytes:       entry.TotalBytes,
	}
}

// Register records or replaces the statistics for one source.
func (s *Statistics) Register(entry SourceStatEntry) {
	if entry.LastAnalyzed.IsZero() {
		entry.LastAnalyzed = time.Now()
	}
	s.sources[entry.SourceID] = &entry
}

// EstimateJoinCardinality estimates the output cardinality of an equi-join
// over the given left/right cardinalities and key distinct-value counts,
// assuming uniform key distribution (the usual containment assumption when
// no histogram is available).
func EstimateJoinCardinality(leftCard, rightCard, leftDistinct, rightDistinct int64) int64 {
	if leftDistinct == 0 || rightDistinct == 0 {
		return leftCard * rightCard
	}
	maxDistinct := leftDistinct
	if rightDistinct > maxDistinct {
		maxDistinct = rightDistinct
	}
	selectivity := 1.0 / float64(maxDistinct)
	result := float64(leftCard*rightCard) * selectivity
	if result < 1.0 {
		return 1
	}
	return int64(result)
}

// EstimateGroupByCardinality estimates the output cardinality of a grouping
// operation given the distinct-value counts of its key fields, bounded by
// the input cardinality since groups cannot outnumber input rows.
func EstimateGroupByCardinality(inputCard int64, keyDistinct []int64) int64 {
	if len(keyDistinct) == 0 {
		return 1
	}
	product := int64(1)
	for _, d := range keyDistinct {
		product *= d
		if product > inputCard {
			return inputCard
		}
	}
	return product
}
