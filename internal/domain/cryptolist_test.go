package domain

import (
	"reflect"
	"testing"
)

func TestCryptoList_Value(t *testing.T) {
	v, err := CryptoList{"BTC", "ETH"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `["BTC","ETH"]` {
		t.Fatalf("Value = %v", v)
	}

	// nil serializes as an empty array, never as SQL NULL
	v, err = CryptoList(nil).Value()
	if err != nil || v != `[]` {
		t.Fatalf("nil Value = (%v, %v); want (\"[]\", nil)", v, err)
	}
}

func TestCryptoList_Scan(t *testing.T) {
	var l CryptoList
	if err := l.Scan(`["BTC","XMR"]`); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if !reflect.DeepEqual(l, CryptoList{"BTC", "XMR"}) {
		t.Fatalf("Scan string = %#v", l)
	}

	if err := l.Scan([]byte(`["ETH"]`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if !reflect.DeepEqual(l, CryptoList{"ETH"}) {
		t.Fatalf("Scan bytes = %#v", l)
	}

	for _, empty := range []any{nil, "", []byte{}} {
		if err := l.Scan(empty); err != nil {
			t.Fatalf("Scan(%#v): %v", empty, err)
		}
		if len(l) != 0 {
			t.Fatalf("Scan(%#v) = %#v; want empty", empty, l)
		}
	}

	if err := l.Scan(42); err == nil {
		t.Fatal("Scan(int) should fail")
	}
	if err := l.Scan("not-json"); err == nil {
		t.Fatal("Scan(malformed) should fail")
	}
}
