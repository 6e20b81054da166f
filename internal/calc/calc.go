// Package calc is a fixed name-to-function table simulating tool use.
package calc

import "fmt"

// Operation names one entry of the closed dispatch table.
type Operation string

const (
	Add      Operation = "add"
	Multiply Operation = "multiply"
)

// Operations lists every registered operation in a stable order.
func Operations() []Operation {
	return []Operation{Add, Multiply}
}

// UnknownOperationError is returned for a name outside the table.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("function '%s' not supported", e.Name)
}

// ArityError is returned when an operation gets the wrong number of operands.
type ArityError struct {
	Op   Operation
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("function '%s' takes %d operands, got %d", e.Op, e.Want, e.Got)
}

func (op Operation) binary() (func(a, b float64) float64, bool) {
	switch op {
	case Add:
		return func(a, b float64) float64 { return a + b }, true
	case Multiply:
		return func(a, b float64) float64 { return a * b }, true
	default:
		return nil, false
	}
}

// Valid reports whether op is in the table.
func (op Operation) Valid() bool {
	_, ok := op.binary()
	return ok
}

// Call invokes the operation registered under name.
func Call(name string, operands ...float64) (float64, error) {
	op := Operation(name)
	fn, ok := op.binary()
	if !ok {
		return 0, &UnknownOperationError{Name: name}
	}
	if len(operands) != 2 {
		return 0, &ArityError{Op: op, Want: 2, Got: len(operands)}
	}
	return fn(operands[0], operands[1]), nil
}
