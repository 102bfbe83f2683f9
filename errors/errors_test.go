package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	err := errors.New("0")
	err1 := Wrap(err, "1")
	err2 := Wrap(err1, "2")
	err3 := Wrap(err2)

	if got := Root(err1); got != err {
		t.Fatalf("Root(%v)=%v want %v", err1, got, err)
	}

	if got := Root(err2); got != err {
		t.Fatalf("Root(%v)=%v want %v", err2, got, err)
	}

	if err2.Error() != "2: 1: 0" {
		t.Fatalf("err msg = %s want '2: 1: 0'", err2.Error())
	}

	if err3.Error() != "2: 1: 0" {
		t.Fatalf("err msg = %s want '2: 1: 0'", err3.Error())
	}
}

func TestWrapNil(t *testing.T) {
	var err error

	err1 := Wrap(err, "1")
	if err1 != nil {
		t.Fatal("wrapping nil error should yield nil")
	}
}

func TestWrapf(t *testing.T) {
	err := errors.New("0")
	err1 := Wrapf(err, "there are %d errors being wrapped", 1)
	if err1.Error() != "there are 1 errors being wrapped: 0" {
		t.Fatalf("err msg = %s want 'there are 1 errors being wrapped: 0'", err1.Error())
	}
}

func TestWrapMsg(t *testing.T) {
	err := errors.New("rooti")
	err1 := Wrap(err, "cherry", " ", "guava")
	if err1.Error() != "cherry guava: rooti" {
		t.Fatalf("err msg = %s want 'cherry guava: rooti'", err1.Error())
	}
}

func TestIsUnwrapsToRoot(t *testing.T) {
	root := errors.New("division by zero")
	err := Wrap(WithDetail(root, "in DIV"), "step 3")
	if !Is(err, root) {
		t.Fatalf("Is(%v, %v) = false want true", err, root)
	}
	if got := Detail(err); got != "in DIV" {
		t.Fatalf("Detail = %q want %q", got, "in DIV")
	}
}

func TestWithData(t *testing.T) {
	err := WithData(errors.New("fault"), "ip", 7)
	err = WithData(err, "op", "JMP")
	data := Data(err)
	if data["ip"] != 7 || data["op"] != "JMP" {
		t.Fatalf("Data = %v", data)
	}
	if len(Stack(err)) == 0 {
		t.Fatal("expected stack trace")
	}
}

func TestSub(t *testing.T) {
	newRoot := errors.New("bad key")
	err := Sub(newRoot, Wrap(errors.New("too long"), "put"))
	if Root(err) != newRoot {
		t.Fatalf("Root = %v want %v", Root(err), newRoot)
	}
	if Sub(newRoot, nil) != nil {
		t.Fatal("Sub(root, nil) should be nil")
	}
}
