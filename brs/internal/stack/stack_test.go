package stack

import (
	stderrors "errors"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

func TestTypes(t *testing.T) {
	var s Types
	s.Push(wasm.ValI32)
	s.PushMany([]wasm.ValType{wasm.ValI64, wasm.ValF32})

	if s.Depth() != 3 {
		t.Fatalf("Depth = %d, want 3", s.Depth())
	}
	if got := s.Peek(0); got != wasm.ValF32 {
		t.Errorf("Peek(0) = %v, want f32", got)
	}
	if got := s.Peek(2); got != wasm.ValI32 {
		t.Errorf("Peek(2) = %v, want i32", got)
	}
	if got := s.At(1); got != wasm.ValI64 {
		t.Errorf("At(1) = %v, want i64", got)
	}

	mark := s.Mark()
	s.Push(wasm.ValF64)
	s.Push(wasm.ValF64)
	s.Reset(mark)
	if s.Depth() != 3 {
		t.Errorf("Depth after Reset = %d, want 3", s.Depth())
	}

	s.Drop(2)
	if s.Depth() != 1 || s.Peek(0) != wasm.ValI32 {
		t.Errorf("after Drop(2): depth %d top %v", s.Depth(), s.Peek(0))
	}
}

func TestTypesViolations(t *testing.T) {
	tests := []struct {
		name string
		fn   func(s *Types)
	}{
		{"drop past bottom", func(s *Types) { s.Drop(2) }},
		{"peek past bottom", func(s *Types) { s.Peek(1) }},
		{"reset above depth", func(s *Types) { s.Reset(5) }},
		{"at out of range", func(s *Types) { s.At(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Types
			s.Push(wasm.ValI32)
			err := catch(func() { tt.fn(&s) })
			if err == nil {
				t.Fatal("expected panic")
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGenerate, Kind: errors.KindInternal}) {
				t.Errorf("panic value = %v, want internal generate error", err)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	var s Labels
	block := &Label{Kind: KindBlock, Name: "block0", Depth: 0}
	loop := &Label{Kind: KindLoop, Name: "loop1", Depth: 1, Results: []wasm.ValType{wasm.ValI32}}
	s.Push(&Label{Kind: KindFunc, Name: "bfunc", Results: []wasm.ValType{wasm.ValI32}})
	s.Push(block)
	s.Push(loop)

	if l := s.Target(0); l.Name != "loop1" || !l.Used {
		t.Errorf("Target(0) = %+v", l)
	}
	if l := s.Target(2); l != s.Func() {
		t.Errorf("Target(2) = %+v, want function label", l)
	}
	if block.Used {
		t.Error("untargeted block marked used")
	}

	if !s.Func().HasValue() {
		t.Error("function label with results should carry a value")
	}
	if loop.HasValue() {
		t.Error("loop label must not carry a value")
	}

	if l := s.Pop(); l.Name != "loop1" {
		t.Errorf("Pop = %q", l.Name)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	if err := catch(func() { s.Target(2) }); err == nil {
		t.Error("Target past the function label did not panic")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{KindFunc: "func", KindBlock: "block", KindLoop: "loop", KindIf: "if", Kind(9): "unknown"}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}
