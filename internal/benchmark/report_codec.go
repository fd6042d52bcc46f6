package benchmark

import (
	"encoding/json"
	"fmt"
)

type ReportEncoder interface {
	Encode(s Summary) ([]byte, error)
}

type JSONEncoder struct{}

func (je JSONEncoder) Encode(s Summary) ([]byte, error) {
	return json.Marshal(s)
}

type StringEncoder struct{}

func (se StringEncoder) Encode(s Summary) ([]byte, error) {
	return fmt.Appendf(nil, "%d requests finished in %dms, deadlocks: %d, qps: %.2f",
		s.Requests, s.ElapsedMillis, s.Deadlocks, s.QPS), nil
}
