package fncache

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func intStringSig() *Signature {
	return NewSignature("test.fn",
		Param{Name: "a", Type: reflect.TypeOf(0)},
		Param{Name: "b", Type: reflect.TypeOf("")},
	)
}

func TestFingerprintDeterministic(t *testing.T) {
	sig := intStringSig()

	k1, err := sig.Fingerprint(nil, []any{1, "x"}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	k2, err := sig.Fingerprint(nil, []any{1, "x"}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if k1 != k2 {
		t.Fatal("Equal calls must produce equal fingerprints")
	}
	if len(k1) != 64 {
		t.Fatalf("Expected hex sha256, got %d chars", len(k1))
	}
}

func TestFingerprintDistinguishesArguments(t *testing.T) {
	sig := intStringSig()

	k1, _ := sig.Fingerprint(nil, []any{1, "x"}, nil)
	k2, _ := sig.Fingerprint(nil, []any{2, "x"}, nil)
	k3, _ := sig.Fingerprint(nil, []any{1, "y"}, nil)

	if k1 == k2 || k1 == k3 {
		t.Fatal("Different arguments must produce different fingerprints")
	}
}

func TestFingerprintPositionalNamedEquivalence(t *testing.T) {
	sig := intStringSig()

	k1, _ := sig.Fingerprint(nil, []any{1, "x"}, nil)
	k2, _ := sig.Fingerprint(nil, nil, map[string]any{"a": 1, "b": "x"})
	k3, _ := sig.Fingerprint(nil, []any{1}, map[string]any{"b": "x"})

	if k1 != k2 || k1 != k3 {
		t.Fatal("One logical call must fingerprint identically however it is bound")
	}
}

func TestFingerprintFramingPreventsConcatCollisions(t *testing.T) {
	sig := NewSignature("test.concat",
		Param{Name: "a", Type: reflect.TypeOf("")},
		Param{Name: "b", Type: reflect.TypeOf("")},
	)

	k1, _ := sig.Fingerprint(nil, []any{"ab", "c"}, nil)
	k2, _ := sig.Fingerprint(nil, []any{"a", "bc"}, nil)

	if k1 == k2 {
		t.Fatal("Adjacent argument bytes must not collide across boundaries")
	}
}

func TestFingerprintIgnoresUnderscoreParams(t *testing.T) {
	sig := NewSignature("test.ignored",
		Param{Name: "id", Type: reflect.TypeOf(0)},
		Param{Name: "_trace", Type: reflect.TypeOf((*any)(nil)).Elem()},
	)

	// The ignored argument may even be unencodable
	k1, err := sig.Fingerprint(nil, []any{1, make(chan int)}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	k2, _ := sig.Fingerprint(nil, []any{1, "different"}, nil)

	if k1 != k2 {
		t.Fatal("Ignored arguments must not affect the fingerprint")
	}
}

func TestFingerprintDifferentFunctionsDiffer(t *testing.T) {
	a := NewSignature("pkg.A", Param{Name: "x", Type: reflect.TypeOf(0)})
	b := NewSignature("pkg.B", Param{Name: "x", Type: reflect.TypeOf(0)})

	k1, _ := a.Fingerprint(nil, []any{1}, nil)
	k2, _ := b.Fingerprint(nil, []any{1}, nil)

	if k1 == k2 {
		t.Fatal("Same arguments to different functions must not collide")
	}
}

func TestFingerprintMapOrderIndependent(t *testing.T) {
	sig := NewSignature("test.maps",
		Param{Name: "m", Type: reflect.TypeOf(map[string]int{})},
	)

	// Build maps with different insertion orders
	m1 := map[string]int{}
	for i := 0; i < 100; i++ {
		m1[fmt.Sprintf("k%d", i)] = i
	}
	m2 := map[string]int{}
	for i := 99; i >= 0; i-- {
		m2[fmt.Sprintf("k%d", i)] = i
	}

	k1, _ := sig.Fingerprint(nil, []any{m1}, nil)
	k2, _ := sig.Fingerprint(nil, []any{m2}, nil)
	if k1 != k2 {
		t.Fatal("Map iteration order must not leak into the fingerprint")
	}
}

func TestFingerprintUnencodableArgument(t *testing.T) {
	sig := NewSignature("test.chan",
		Param{Name: "ch", Type: reflect.TypeOf(make(chan int))},
	)

	_, err := sig.Fingerprint(nil, []any{make(chan int)}, nil)

	var ue *UnencodableArgumentError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected UnencodableArgumentError, got %v", err)
	}
	if ue.Param != "ch" {
		t.Fatalf("Expected param 'ch' in error, got %q", ue.Param)
	}
}

func TestFingerprintEncoderTableOverride(t *testing.T) {
	type opaque struct {
		id   int
		conn chan int
	}

	sig := NewSignature("test.opaque",
		Param{Name: "o", Type: reflect.TypeOf(opaque{})},
	)

	// Unexported fields make the struct unencodable natively
	if _, err := sig.Fingerprint(nil, []any{opaque{id: 1}}, nil); err == nil {
		t.Fatal("Expected native encoding to fail")
	}

	table := NewEncoderTable()
	Register(table, func(o opaque) ([]byte, error) {
		return []byte(fmt.Sprintf("opaque:%d", o.id)), nil
	})

	k1, err := sig.Fingerprint(table, []any{opaque{id: 1, conn: make(chan int)}}, nil)
	if err != nil {
		t.Fatalf("Fingerprint with encoder failed: %v", err)
	}
	k2, _ := sig.Fingerprint(table, []any{opaque{id: 1, conn: make(chan int)}}, nil)
	k3, _ := sig.Fingerprint(table, []any{opaque{id: 2}}, nil)

	if k1 != k2 {
		t.Fatal("Encoder output must determine equality")
	}
	if k1 == k3 {
		t.Fatal("Encoder must distinguish different values")
	}
}

func TestFingerprintEncoderError(t *testing.T) {
	sig := NewSignature("test.encerr",
		Param{Name: "s", Type: reflect.TypeOf("")},
	)

	table := NewEncoderTable()
	Register(table, func(string) ([]byte, error) {
		return nil, errors.New("refused")
	})

	if _, err := sig.Fingerprint(table, []any{"x"}, nil); err == nil {
		t.Fatal("Expected encoder failure to propagate")
	}
}

func TestFingerprintPointerDeref(t *testing.T) {
	sig := NewSignature("test.ptr",
		Param{Name: "n", Type: reflect.TypeOf((*int)(nil))},
	)

	a, b := 7, 7
	k1, _ := sig.Fingerprint(nil, []any{&a}, nil)
	k2, _ := sig.Fingerprint(nil, []any{&b}, nil)

	if k1 != k2 {
		t.Fatal("Pointers must fingerprint by pointee value, not address")
	}
}

func TestFingerprintStructs(t *testing.T) {
	type query struct {
		Table string
		Limit int
	}

	sig := NewSignature("test.query",
		Param{Name: "q", Type: reflect.TypeOf(query{})},
	)

	k1, err := sig.Fingerprint(nil, []any{query{Table: "users", Limit: 10}}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	k2, _ := sig.Fingerprint(nil, []any{query{Table: "users", Limit: 10}}, nil)
	k3, _ := sig.Fingerprint(nil, []any{query{Table: "users", Limit: 20}}, nil)

	if k1 != k2 {
		t.Fatal("Equal structs must fingerprint equally")
	}
	if k1 == k3 {
		t.Fatal("Different structs must not collide")
	}
}

func TestFingerprintNilVariants(t *testing.T) {
	sig := NewSignature("test.nils",
		Param{Name: "p", Type: reflect.TypeOf((*int)(nil))},
	)

	k1, err := sig.Fingerprint(nil, []any{nil}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed for nil: %v", err)
	}
	k2, _ := sig.Fingerprint(nil, []any{(*int)(nil)}, nil)

	if k1 != k2 {
		t.Fatal("Typed and untyped nil must fingerprint equally")
	}
}

func TestFingerprintNumericKindsDistinct(t *testing.T) {
	sig := NewSignature("test.num",
		Param{Name: "v", Type: reflect.TypeOf((*any)(nil)).Elem()},
	)

	kInt, _ := sig.Fingerprint(nil, []any{1}, nil)
	kStr, _ := sig.Fingerprint(nil, []any{"1"}, nil)
	kFloat, _ := sig.Fingerprint(nil, []any{1.0}, nil)

	if kInt == kStr || kInt == kFloat || kStr == kFloat {
		t.Fatal("Values of different kinds must not collide")
	}
}

func TestFingerprintTimeEncoder(t *testing.T) {
	sig := NewSignature("test.time",
		Param{Name: "ts", Type: reflect.TypeOf(time.Time{})},
	)

	table := NewEncoderTable()
	Register(table, func(ts time.Time) ([]byte, error) {
		return []byte(ts.UTC().Format(time.RFC3339Nano)), nil
	})

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	k1, err := sig.Fingerprint(table, []any{ts}, nil)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	k2, _ := sig.Fingerprint(table, []any{ts.In(time.FixedZone("X", 3600))}, nil)

	if k1 != k2 {
		t.Fatal("Encoder must normalize equivalent instants")
	}
}

func FuzzEncodeValue(f *testing.F) {
	f.Add("", int64(0), false)
	f.Add("hello", int64(42), true)
	f.Add("ünïcøde", int64(-7), false)

	f.Fuzz(func(t *testing.T, s string, n int64, b bool) {
		sig := NewSignature("fuzz.fn",
			Param{Name: "s", Type: reflect.TypeOf("")},
			Param{Name: "n", Type: reflect.TypeOf(int64(0))},
			Param{Name: "b", Type: reflect.TypeOf(false)},
		)

		k1, err := sig.Fingerprint(nil, []any{s, n, b}, nil)
		if err != nil {
			t.Fatalf("Fingerprint failed: %v", err)
		}
		k2, err := sig.Fingerprint(nil, []any{s, n, b}, nil)
		if err != nil {
			t.Fatalf("Fingerprint failed on repeat: %v", err)
		}
		if k1 != k2 {
			t.Fatalf("Non-deterministic fingerprint for (%q, %d, %v)", s, n, b)
		}
	})
}
