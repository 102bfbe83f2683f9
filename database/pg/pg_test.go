package pg

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

func TestRebind(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT v FROM t WHERE a = ? AND b = ?", "SELECT v FROM t WHERE a = $1 AND b = $2"},
		{"INSERT INTO t VALUES (?, '?', ?)", "INSERT INTO t VALUES ($1, '?', $2)"},
	}
	for _, c := range cases {
		if got := Rebind(c.in); got != c.want {
			t.Errorf("Rebind(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("23505 is a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("23503 is a foreign key violation")
	}
	if IsUniqueViolation(errors.New("duplicate")) {
		t.Error("non-pq error reported as unique violation")
	}
}
