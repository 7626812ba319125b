// Package model contains domain models passed between layers.
package model

// Function is the business area an MDP is assigned to.
type Function string

// Enumerated functions.
const (
	FunctionPlanning      Function = "Planning"
	FunctionDigitalMerch  Function = "Digital Merch"
	FunctionReplenishment Function = "Replenishment"
	FunctionMembersMark   Function = "Member's Mark"
)

// Functions returns the enumerated set in display order.
func Functions() []Function {
	return []Function{
		FunctionPlanning,
		FunctionDigitalMerch,
		FunctionReplenishment,
		FunctionMembersMark,
	}
}

// Valid reports whether f is one of the enumerated functions.
func (f Function) Valid() bool {
	for _, known := range Functions() {
		if f == known {
			return true
		}
	}
	return false
}

// functionQuestions maps each function to the keys of its two specific questions.
var functionQuestions = map[Function][2]string{ //nolint:gochecknoglobals // fixed lookup table
	FunctionPlanning:      {"planningFinancial", "planningMath"},
	FunctionDigitalMerch:  {"digitalFramework", "digitalSEO"},
	FunctionReplenishment: {"replenishmentForecasting", "replenishmentInventory"},
	FunctionMembersMark:   {"membersMarkStrategy", "membersMarkGuidelines"},
}

// FunctionQuestions returns the question keys behind functionSpecific1 and
// functionSpecific2 for f. ok is false for unknown functions.
func FunctionQuestions(f Function) (questions [2]string, ok bool) {
	questions, ok = functionQuestions[f]
	return questions, ok
}
