package vm

import (
	"reflect"
	"testing"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

func TestServiceKey(t *testing.T) {
	cases := map[string]string{
		"Neo.Storage.GetContext":       "neo_storage_get_context",
		"AntShares.Storage.GetContext": "neo_storage_get_context",
		"Neo.Runtime.CheckWitness":     "neo_runtime_check_witness",
		"Neo.Blockchain.GetHeight":     "neo_blockchain_get_height",
		"Neo.Header.GetHash":           "neo_header_get_hash",
		"Neo.SHA256Hash":               "neo_sha256_hash",

		"System.ExecutionEngine.GetScriptContainer": "system_execution_engine_get_script_container",
	}
	for in, want := range cases {
		if got := ServiceKey(in); got != want {
			t.Errorf("ServiceKey(%q) = %q want %q", in, got, want)
		}
	}
}

func TestInteropAliases(t *testing.T) {
	in := NewInterop()
	in.Register("Neo.Runtime.Log", func(e *Engine) error { return nil })

	for _, name := range []string{"Neo.Runtime.Log", "AntShares.Runtime.Log", "neo_runtime_log"} {
		if _, ok := in.Lookup(name); !ok {
			t.Errorf("Lookup(%q) failed", name)
		}
	}
	if got := in.Keys(); !reflect.DeepEqual(got, []string{"neo_runtime_log"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestSysCall(t *testing.T) {
	in := NewInterop()
	var logged []string
	in.Register("Neo.Runtime.Log", func(e *Engine) error {
		b, err := e.popBytes()
		if err != nil {
			return err
		}
		logged = append(logged, string(b))
		return nil
	})
	errNope := errors.New("nope")
	in.Register("Neo.Runtime.Fail", func(e *Engine) error { return errNope })

	_, err := runProg(t, mustAssemble(t, "'hi' SYSCALL:'AntShares.Runtime.Log' 'there' SYSCALL:'Neo.Runtime.Log'"), nil, in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(logged, []string{"hi", "there"}) {
		t.Errorf("logged %v", logged)
	}

	e, err := runProg(t, mustAssemble(t, "SYSCALL:'Neo.Runtime.Fail'"), nil, in)
	if !errors.Is(err, errNope) || !e.Faulted() {
		t.Errorf("failing service: err %v state %s", err, e.State())
	}
	if errors.Root(e.Err()) != errNope {
		t.Errorf("Root(Err()) = %v want %v", errors.Root(e.Err()), errNope)
	}

	_, err = runProg(t, mustAssemble(t, "SYSCALL:'Neo.Runtime.Nothing'"), nil, in)
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("unknown service err = %v want %v", err, ErrUnknownService)
	}

	_, err = runProg(t, mustAssemble(t, "SYSCALL:'Neo.Runtime.Log'"), nil, nil)
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("nil interop err = %v want %v", err, ErrUnknownService)
	}
}
