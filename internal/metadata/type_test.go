package metadata

import "testing"

func TestTypeShapes(t *testing.T) {
	if !Void.IsVoid() {
		t.Fatalf("Void must report IsVoid")
	}
	if Int32.Shape != ShapeValue {
		t.Fatalf("Int32 shape = %v, want value", Int32.Shape)
	}
	if String.Shape != ShapeReference {
		t.Fatalf("String shape = %v, want reference", String.Shape)
	}
}

func TestMakeByRef(t *testing.T) {
	r := Int32.MakeByRef()
	if !r.ByRef {
		t.Fatalf("MakeByRef did not set ByRef")
	}
	if Int32.ByRef {
		t.Fatalf("MakeByRef mutated the receiver")
	}
	if got := r.String(); got != "&System.Int32" {
		t.Fatalf("String() = %q, want &System.Int32", got)
	}
}

func TestMakeArray(t *testing.T) {
	arr := Double.MakeArray()
	if !arr.Array {
		t.Fatalf("MakeArray did not set Array")
	}
	if arr.Shape != ShapeReference {
		t.Fatalf("array shape = %v, want reference", arr.Shape)
	}
	if arr.Elem == nil || !arr.Elem.Equal(Double) {
		t.Fatalf("array element = %v, want System.Double", arr.Elem)
	}
	if got := arr.String(); got != "System.Double[]" {
		t.Fatalf("String() = %q", got)
	}
}

func TestTypeEqual(t *testing.T) {
	if !Int32.Equal(Ref(Mscorlib, "System.Int32", ShapeValue)) {
		t.Fatalf("identical refs not equal")
	}
	if Int32.Equal(UInt32) {
		t.Fatalf("distinct refs equal")
	}
	if Int32.Equal(Int32.MakeByRef()) {
		t.Fatalf("byref form equals plain form")
	}
	if !Int32.MakeArray().Equal(Int32.MakeArray()) {
		t.Fatalf("equal arrays not equal")
	}
}

func TestShortName(t *testing.T) {
	cases := []struct {
		full, short string
	}{
		{"System.Int32", "Int32"},
		{"WidgetLib.IWidget", "IWidget"},
		{"WidgetLib.Outer+Inner", "Inner"},
		{"Plain", "Plain"},
	}
	for _, c := range cases {
		got := Type{Name: c.full}.ShortName()
		if got != c.short {
			t.Fatalf("ShortName(%q) = %q, want %q", c.full, got, c.short)
		}
	}
}
