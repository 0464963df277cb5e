package value

import (
	"encoding/json"
	"testing"
)

func TestCoerceForSort(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		sort Sort
		want Value
		ok   bool
	}{
		{"bool to bool", Bool(true), SortBool, Bool(true), true},
		{"real truncates to int", Real(4.9), SortInt, Int(4), true},
		{"bool true to int", Bool(true), SortInt, Int(1), true},
		{"bool false to real", Bool(false), SortReal, Real(0), true},
		{"int to real", Int(3), SortReal, Real(3), true},
		{"string has no coercion to bool", String("x"), SortBool, Value{}, false},
		{"list has no coercion to int", List([]Value{Int(1)}), SortInt, Value{}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := CoerceForSort(c.v, c.sort)
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if ok && !got.Equal(c.want) {
				t.Fatalf("got %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestDefaultBySort(t *testing.T) {
	if !Default(SortBool).Equal(Bool(false)) {
		t.Fatal("bool default must be false")
	}
	if !Default(SortInt).Equal(Int(0)) {
		t.Fatal("int default must be 0")
	}
	if !Default(SortReal).Equal(Real(0)) {
		t.Fatal("real default must be 0.0")
	}
}

func TestEqualDistinguishesKinds(t *testing.T) {
	if Int(0).Equal(Bool(false)) {
		t.Fatal("values of different kinds must never be equal")
	}
	if !List([]Value{Int(1), String("a")}).Equal(List([]Value{Int(1), String("a")})) {
		t.Fatal("equal lists must compare equal")
	}
	if List([]Value{Int(1)}).Equal(List([]Value{Int(1), Int(2)})) {
		t.Fatal("lists of different length must not compare equal")
	}
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Int(35))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "35" {
		t.Fatalf("got %s", b)
	}

	b, err = json.Marshal(List([]Value{Int(1), String("a")}))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[1,"a"]` {
		t.Fatalf("got %s", b)
	}
}
