package value

import "testing"

func TestJSONRoundTripPreservesObjectOrder(t *testing.T) {
	src := []byte(`{"z":1,"a":2,"m":3}`)
	v, err := FromJSON(src)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	keys := v.ObjectKeys()
	want := []string{"z", "a", "m"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("key order = %v, want %v", keys, want)
		}
	}
}

func TestJSONRoundTripIntegerVsFloat(t *testing.T) {
	v, err := FromJSON([]byte(`{"n":42,"f":42.5}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if v.ObjectGet("n").Kind() != KindI64 {
		t.Fatalf("integral JSON number should decode to I64, got %s", v.ObjectGet("n").Kind())
	}
	if v.ObjectGet("f").Kind() != KindF64 {
		t.Fatalf("non-integral JSON number should decode to F64, got %s", v.ObjectGet("f").Kind())
	}

	out, err := v.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON(ToJSON): %v", err)
	}
	if !v.Equal(back) {
		t.Fatalf("round trip not idempotent: %s -> %v", out, back)
	}
}

func TestToJSONRejectsPtr(t *testing.T) {
	v := NewPtr(struct{}{})
	if _, err := v.ToJSON(); err == nil {
		t.Fatalf("expected ToJSON on a ptr value to fail")
	}
}

func TestPathGetSet(t *testing.T) {
	root := NewObject()
	root.ObjectSet("a", NewObject())
	root.ObjectGet("a").ObjectSet("b", NewArray(NewI64(1), NewI64(2), NewI64(3)))

	got, err := root.Get("a.b[1]")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	n, err := got.AsI64()
	if err != nil || n != 2 {
		t.Fatalf("got %v, %v, want 2", n, err)
	}

	if err := root.Set("a.b[1]", NewI64(99)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = root.Get("a.b[1]")
	if err != nil {
		t.Fatalf("Get after Set: %v", err)
	}
	n, _ = got.AsI64()
	if n != 99 {
		t.Fatalf("got %d, want 99", n)
	}

	if _, err := root.Get("a.c.d"); err == nil {
		t.Fatalf("expected PathNotFound for missing path")
	}
}

func TestPathSetCreatesIntermediates(t *testing.T) {
	root := NewObject()
	if err := root.Set("x.y.z", NewString("hi")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := root.Get("x.y.z")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s, _ := got.AsString()
	if s != "hi" {
		t.Fatalf("got %q, want hi", s)
	}
}
