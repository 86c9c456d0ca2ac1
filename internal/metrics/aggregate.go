package metrics

import (
	"bufio"
	"encoding/json"
	"os"
)

// Aggregate folds a day's JSONL records into summary stats, grounded on
// original_source/src/memory/repository.py's AgentMetricsRepository.
// get_aggregate_stats, without adding a database dependency — the spec
// keeps metrics file-based, so this reader is pure post-processing over
// the same files Sink writes.
type Aggregate struct {
	Count            int
	AvgTookMs        float64
	AvgTookMsByMethod map[string]float64
	CacheHitRate     map[string]float64
}

// ReadAggregate parses the JSONL file at path and folds it into Aggregate.
func ReadAggregate(path string) (Aggregate, error) {
	f, err := os.Open(path)
	if err != nil {
		return Aggregate{}, err
	}
	defer f.Close()

	var (
		totalTook     int64
		byMethodTook  = map[string]int64{}
		byMethodCount = map[string]int{}
		cacheHitCount = map[string]int{}
		cacheSeen     = map[string]int{}
		count         int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		count++
		totalTook += rec.TookMs
		byMethodTook[rec.Method] += rec.TookMs
		byMethodCount[rec.Method]++
		for name, hit := range rec.CacheHits {
			cacheSeen[name]++
			if hit {
				cacheHitCount[name]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{Count: count, AvgTookMsByMethod: map[string]float64{}, CacheHitRate: map[string]float64{}}
	if count > 0 {
		agg.AvgTookMs = float64(totalTook) / float64(count)
	}
	for method, total := range byMethodTook {
		n := byMethodCount[method]
		if n > 0 {
			agg.AvgTookMsByMethod[method] = float64(total) / float64(n)
		}
	}
	for name, seen := range cacheSeen {
		if seen > 0 {
			agg.CacheHitRate[name] = float64(cacheHitCount[name]) / float64(seen)
		}
	}
	return agg, nil
}
