// Package calculator provides a basic arithmetic tool. It runs entirely
// in-process, which makes it convenient for exercising the tool-calling loop
// without network access.
package calculator

import (
	"context"
	"fmt"

	"github.com/openscribe/agentkit/providers/tool"
)

// Input holds the two operands and the operation to apply.
type Input struct {
	A  float64 `json:"a" description:"First operand"`
	B  float64 `json:"b" description:"Second operand"`
	Op string  `json:"op" description:"Operation to perform" enum:"add, sub, mul, div"`
}

// Output carries the single result produced by [Calc].
type Output struct {
	Result float64 `json:"result"`
}

// New returns a [tool.Tool] that performs basic arithmetic.
func New() *tool.Tool[Input, Output] {
	return tool.New(
		"calculator",
		"Performs basic arithmetic: addition, subtraction, multiplication, and division of two numbers.",
		Calc,
	)
}

// Calc applies req.Op to req.A and req.B. The symbolic forms "+", "-", "*"
// and "/" are accepted alongside the word forms. Division by zero follows
// IEEE 754 semantics and yields an infinity rather than an error. An
// unrecognised operation is an error, which the agent loop feeds back to the
// model as the tool result.
func Calc(_ context.Context, req Input) (Output, error) {
	switch req.Op {
	case "add", "+":
		return Output{Result: req.A + req.B}, nil
	case "sub", "-":
		return Output{Result: req.A - req.B}, nil
	case "mul", "*":
		return Output{Result: req.A * req.B}, nil
	case "div", "/":
		return Output{Result: req.A / req.B}, nil
	default:
		return Output{}, fmt.Errorf("unsupported operation %q (expected add, sub, mul, or div)", req.Op)
	}
}
