package models

// DataPoint is the wire payload for one published metric. The collector
// service stores each series as (timestamp, value) observations, so field
// names must match its expectations exactly.
type DataPoint struct {
	// TimeStamp is the measurement time in Unix epoch seconds
	TimeStamp int64 `json:"timeStamp"`

	// Value is the metric value; its unit is part of the series name
	Value float64 `json:"value"`
}
