package field

// Operator identifies a condition test.
type Operator string

const (
	OpEq           Operator = "eq"
	OpNeq          Operator = "neq"
	OpIn           Operator = "in"
	OpNin          Operator = "nin"
	OpContains     Operator = "contains"
	OpIContains    Operator = "icontains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpGte          Operator = "gte"
	OpLte          Operator = "lte"
	OpGt           Operator = "gt"
	OpLt           Operator = "lt"
	OpBetween      Operator = "between"
	OpExists       Operator = "exists"
	OpNotExists    Operator = "notExists"
	OpIsTrue       Operator = "isTrue"
	OpIsFalse      Operator = "isFalse"
	OpMatch        Operator = "match"
	OpMatchAny     Operator = "matchAny"
	OpWithinRadius Operator = "withinRadius"
)

// Operators is the universal operator enumeration, in canonical order.
var Operators = []Operator{
	OpEq, OpNeq, OpIn, OpNin, OpContains, OpIContains, OpStartsWith, OpEndsWith,
	OpGte, OpLte, OpGt, OpLt, OpBetween, OpExists, OpNotExists, OpIsTrue, OpIsFalse,
	OpMatch, OpMatchAny, OpWithinRadius,
}

// Valid reports whether op belongs to the universal enumeration.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Nullary reports whether the operator ignores the condition value.
func (op Operator) Nullary() bool {
	switch op {
	case OpExists, OpNotExists, OpIsTrue, OpIsFalse:
		return true
	default:
		return false
	}
}
