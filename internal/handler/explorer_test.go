package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Belloabraham121/warpscan/internal/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &errs.ValidationError{Field: "address", Reason: "bad"}, http.StatusBadRequest},
		{"network", &errs.NetworkError{Op: "dial", Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"blockchain", &errs.BlockchainError{Op: "tx", Message: "not found"}, http.StatusBadGateway},
		{"parse", &errs.ParseError{Op: "decode", Err: errors.New("bad json")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDecodeHexData(t *testing.T) {
	data, err := decodeHexData("0xa9059cbb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 4 || data[0] != 0xa9 {
		t.Fatalf("got %x", data)
	}

	// Prefix is optional on input.
	if _, err := decodeHexData("a9059cbb"); err != nil {
		t.Fatalf("unprefixed hex must decode, got %v", err)
	}

	if _, err := decodeHexData("0xzz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}
