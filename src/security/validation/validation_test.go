package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestValidateCSVContent(t *testing.T) {
	r := bytes.NewReader([]byte("PV;PRODOTTO\n7;ART1\n"))
	if _, err := ValidateCSVContent(r); err != nil {
		t.Fatalf("text rejected: %v", err)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Fatalf("offset not reset: %d", pos)
	}

	zip := bytes.NewReader([]byte("PK\x03\x04\x14\x00\x06\x00"))
	if _, err := ValidateCSVContent(zip); !errors.Is(err, ErrNotText) {
		t.Fatalf("zip accepted: %v", err)
	}
}

func TestObservatoryID(t *testing.T) {
	if v, err := ObservatoryID(" 12345\x00 "); err != nil || v != "12345" {
		t.Fatalf("got %q %v", v, err)
	}
	for _, bad := range []string{"", "  ", "1;DROP", "a b"} {
		if _, err := ObservatoryID(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}
