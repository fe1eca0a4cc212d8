package enums

import "fmt"

// InsertStrategy selects the upsert behavior for a cart item insert when the
// (customer, product) pair already exists.
type InsertStrategy string

const (
	// InsertStrategyStandard fails with a conflict on collision.
	InsertStrategyStandard InsertStrategy = "standard"
	// InsertStrategyReplacer overwrites the existing row on collision.
	InsertStrategyReplacer InsertStrategy = "replacer"
	// InsertStrategyIncrementer bumps quantity by one on collision.
	InsertStrategyIncrementer InsertStrategy = "incrementer"
	// InsertStrategyCollisionNoOp keeps the existing row on collision.
	InsertStrategyCollisionNoOp InsertStrategy = "collision_no_op"
)

var validInsertStrategies = []InsertStrategy{
	InsertStrategyStandard,
	InsertStrategyReplacer,
	InsertStrategyIncrementer,
	InsertStrategyCollisionNoOp,
}

// String implements fmt.Stringer.
func (s InsertStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InsertStrategy.
func (s InsertStrategy) IsValid() bool {
	for _, candidate := range validInsertStrategies {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInsertStrategy converts raw input into an InsertStrategy.
func ParseInsertStrategy(value string) (InsertStrategy, error) {
	for _, candidate := range validInsertStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid insert strategy %q", value)
}
