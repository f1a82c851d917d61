package bubble

import (
	"encoding/json"
	"fmt"
	"time"
)

// Constraint is one element of the Data API's constraints filter.
type Constraint struct {
	Key            string `json:"key"`
	ConstraintType string `json:"constraint_type"`
	Value          string `json:"value"`
}

// ModifiedAfter builds the "modified after" constraint the incremental
// fetch forwards. The filter is advisory: the fetcher does not guarantee
// server-side correctness, only that it is attached to the request.
func ModifiedAfter(since time.Time) Constraint {
	return Constraint{
		Key:            "Modified Date",
		ConstraintType: "greater than",
		Value:          since.UTC().Format(time.RFC3339),
	}
}

// encodeConstraints renders constraints as the JSON array query parameter
// the API expects. Returns empty string for an empty set.
func encodeConstraints(constraints []Constraint) (string, error) {
	if len(constraints) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(constraints)
	if err != nil {
		return "", fmt.Errorf("marshal constraints: %w", err)
	}
	return string(raw), nil
}
