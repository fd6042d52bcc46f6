package benchmark

import "time"

// Summary is the result of a run.
type Summary struct {
	Requests      int64         `json:"requests"`
	Elapsed       time.Duration `json:"-"`
	ElapsedMillis int64         `json:"elapsedMillis"`
	Deadlocks     int64         `json:"deadlocks"`
	QPS           float64       `json:"qps"`
	FailedWorkers int           `json:"failedWorkers"`
}

func newSummary(counters *Counters, elapsed time.Duration, failedWorkers int) Summary {
	s := Summary{
		Requests:      counters.CompletedRequests.Load(),
		Elapsed:       elapsed,
		ElapsedMillis: elapsed.Milliseconds(),
		Deadlocks:     counters.DetectedDeadlocks.Load(),
		FailedWorkers: failedWorkers,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.QPS = float64(s.Requests) / secs
	}
	return s
}
