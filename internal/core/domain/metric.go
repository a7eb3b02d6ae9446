package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a statistic that may be undefined, for example the median of an
// empty group. Undefined metrics serialise as JSON null and print as "N/A".
type Metric struct {
	Value float64
	Valid bool
}

// Defined wraps a computed value.
func Defined(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Undefined is the N/A metric.
func Undefined() Metric {
	return Metric{}
}

// Format renders the metric with one decimal place, or "N/A".
func (m Metric) Format() string {
	if !m.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(m.Value, 'f', 1, 64)
}

func (m Metric) String() string {
	return m.Format()
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}
