package features

import (
	"encoding/json"
	"fmt"
	"os"
)

// FlowRecord is one ticker's entry in the flow-metrics input file,
// produced by the upstream options/dark-pool collector.
type FlowRecord struct {
	Sector string      `json:"sector"`
	Flow   FlowMetrics `json:"flow"`
}

// LoadFlow reads the ticker-keyed flow metrics file. Tickers absent from
// the file simply score zero on the flow components; that is a data gap,
// not an error.
func LoadFlow(path string) (map[string]FlowRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}
	var out map[string]FlowRecord
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse flow file %s: %w", path, err)
	}
	return out, nil
}
