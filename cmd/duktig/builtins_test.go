package main

import (
	"bytes"
	"testing"

	"github.com/duktig-dev/duktig/engine"
)

// argStack is just enough of engine.Context for the builtin natives: typed
// argument values and a place to push results.
type argStack struct {
	vals []any
}

func (s *argStack) RequireStack(int)         {}
func (s *argStack) Top() int                 { return len(s.vals) }
func (s *argStack) Pop(n int)                { s.vals = s.vals[:len(s.vals)-n] }
func (s *argStack) PushHostFunction(int)     { panic("not used") }
func (s *argStack) PushCurrentFunction()     { panic("not used") }
func (s *argStack) PushPointer(uint64)       { panic("not used") }
func (s *argStack) GetPointer(int) uint64    { return 0 }
func (s *argStack) PutProp(int, string)      { panic("not used") }
func (s *argStack) GetProp(int, string) bool { return false }
func (s *argStack) PushUndefined()           { s.vals = append(s.vals, nil) }
func (s *argStack) PushString(v string)      { s.vals = append(s.vals, v) }
func (s *argStack) PushNumber(n float64)     { s.vals = append(s.vals, n) }
func (s *argStack) Throw() int               { return -1 }

func (s *argStack) GetString(idx int) (string, bool) {
	v, ok := s.vals[idx].(string)
	return v, ok
}

func (s *argStack) GetNumber(idx int) (float64, bool) {
	v, ok := s.vals[idx].(float64)
	return v, ok
}

func TestPrintNative(t *testing.T) {
	var out bytes.Buffer
	fn := printNative(&out)

	stack := &argStack{vals: []any{"total:", float64(3), nil}}
	if rc := fn(stack); rc != 0 {
		t.Fatalf("rc = %d, want 0", rc)
	}
	if got := out.String(); got != "total: 3 [object]\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestNowNative(t *testing.T) {
	stack := &argStack{}
	if rc := nowNative(stack); rc != 1 {
		t.Fatalf("rc = %d, want 1", rc)
	}
	n, ok := stack.vals[0].(float64)
	if !ok || n <= 0 {
		t.Fatalf("pushed %v, want positive number", stack.vals[0])
	}
}

var _ engine.Func = nowNative
