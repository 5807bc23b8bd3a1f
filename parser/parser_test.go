package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unworried/flip/ast"
	"github.com/unworried/flip/diagnostics"
	"github.com/unworried/flip/lexer"
)

func parse(t *testing.T, input string) (*ast.Program, *diagnostics.Bag) {
	t.Helper()
	bag := diagnostics.NewBag()
	p := New(lexer.New(input), bag)
	return p.Parse(), bag
}

func TestFunctionNoParameters(t *testing.T) {
	program, bag := parse(t, "void main() { let x = 4; }")
	assert.False(t, bag.HasErrors())
	require.Len(t, program.Functions, 1)

	fn := program.Functions[0]
	assert.Equal(t, "main", fn.Pattern.Name)
	assert.Equal(t, ast.TypeVoid, fn.ReturnType)
	assert.Empty(t, fn.Parameters)
	require.Len(t, fn.Body.Statements, 1)

	def, ok := fn.Body.Statements[0].(*ast.Definition)
	require.True(t, ok)
	assert.Equal(t, "x", def.Pattern.Name)
}

func TestFunctionParameters(t *testing.T) {
	program, bag := parse(t, "int add(x, y) { return x + y; }")
	assert.False(t, bag.HasErrors())
	require.Len(t, program.Functions, 1)

	fn := program.Functions[0]
	assert.Equal(t, ast.TypeInt, fn.ReturnType)
	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "x", fn.Parameters[0].Name)
	assert.Equal(t, "y", fn.Parameters[1].Name)
}

func TestFunctionMissingRBrace(t *testing.T) {
	_, bag := parse(t, "void main() { let x = 4; ")
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Messages(), "expected: '}', found: `EoF`")
}

func TestMultipleFunctions(t *testing.T) {
	program, bag := parse(t, `
void main() { let x = f(); };
int f() { return 1; };
`)
	assert.False(t, bag.HasErrors())
	assert.Len(t, program.Functions, 2)
}

func TestIfStatement(t *testing.T) {
	program, bag := parse(t, `
void main() {
    let x = 1;
    if x == 2 {
        x = 3;
    };
}
`)
	assert.False(t, bag.HasErrors())
	fn := program.Functions[0]
	require.Len(t, fn.Body.Statements, 2)

	ifStmt, ok := fn.Body.Statements[1].(*ast.If)
	require.True(t, ok)

	cond, ok := ifStmt.Condition.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, cond.Op)
	require.Len(t, ifStmt.Then.Statements, 1)

	_, ok = ifStmt.Then.Statements[0].(*ast.Assignment)
	assert.True(t, ok)
}

func TestWhileStatement(t *testing.T) {
	program, bag := parse(t, `
void main() {
    let i = 0;
    while i < 10 {
        i = i + 1;
    };
}
`)
	assert.False(t, bag.HasErrors())
	fn := program.Functions[0]
	_, ok := fn.Body.Statements[1].(*ast.While)
	assert.True(t, ok)
}

func TestCallStatementAndExpression(t *testing.T) {
	program, bag := parse(t, `
void main() {
    ping();
    let x = fib(3, 4);
}
`)
	assert.False(t, bag.HasErrors())
	fn := program.Functions[0]

	call, ok := fn.Body.Statements[0].(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "ping", call.Pattern.Name)
	assert.Empty(t, call.Arguments)

	def, ok := fn.Body.Statements[1].(*ast.Definition)
	require.True(t, ok)
	inner, ok := def.Value.(*ast.Call)
	require.True(t, ok)
	assert.Len(t, inner.Arguments, 2)
}

func TestUnaryMinus(t *testing.T) {
	program, bag := parse(t, "void main() { let x = -4; }")
	assert.False(t, bag.HasErrors())

	def := program.Functions[0].Body.Statements[0].(*ast.Definition)
	un, ok := def.Value.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.OpNeg, un.Op)
}

// Equality binds tighter than the orderings, so `a < b == c` groups as
// `a < (b == c)`.
func TestEqualityBindsTighterThanOrdering(t *testing.T) {
	program, bag := parse(t, "void main() { let x = 1 < 2 == 3; }")
	assert.False(t, bag.HasErrors())

	def := program.Functions[0].Body.Statements[0].(*ast.Definition)
	outer, ok := def.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpLessThan, outer.Op)

	right, ok := outer.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, right.Op)
}

func TestAddBindsLooserThanMul(t *testing.T) {
	program, bag := parse(t, "void main() { let x = 1 + 2 * 3; }")
	assert.False(t, bag.HasErrors())

	def := program.Functions[0].Body.Statements[0].(*ast.Definition)
	outer, ok := def.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, outer.Op)

	right, ok := outer.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, right.Op)
}

func TestParenthesesGroup(t *testing.T) {
	program, bag := parse(t, "void main() { let x = (1 + 2) * 3; }")
	assert.False(t, bag.HasErrors())

	def := program.Functions[0].Body.Statements[0].(*ast.Definition)
	outer, ok := def.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, outer.Op)

	left, ok := outer.Left.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, left.Op)
}

func TestMissingSemicolonDiagnostic(t *testing.T) {
	_, bag := parse(t, `
void main() {
    let x = 7;
    x = 1 let y = x - 2;
}
`)
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Messages(), "expected: ';', found: `let`")
}

func TestEmptyBlockWarning(t *testing.T) {
	_, bag := parse(t, "void main() { }")
	assert.False(t, bag.HasErrors())
	assert.Contains(t, bag.Messages(), "empty block found")
}

func TestUnknownStatement(t *testing.T) {
	_, bag := parse(t, "void main() { 42; }")
	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Messages(), "unknown statement `Integer(42)`")
}
