package hash256

import (
	"encoding/hex"
	"testing"
)

func TestSum(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		// sha256(sha256("")), as in Bitcoin's block header tests.
		{"", "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"},
		{"hello", "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"},
	}
	for _, c := range cases {
		got := Sum([]byte(c.in))
		if hex.EncodeToString(got[:]) != c.want {
			t.Errorf("Sum(%q) = %x want %s", c.in, got, c.want)
		}
	}
}
