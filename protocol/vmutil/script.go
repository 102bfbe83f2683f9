package vmutil

import (
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/protocol/vm"
)

var (
	ErrBadValue       = errors.New("bad value")
	ErrMultisigFormat = errors.New("bad multisig script format")
)

// PublicKeySize is the length of a compressed P-256 public key.
const PublicKeySize = 33

// CheckSigScript returns the single-signature verification script
// for pubkey: <pubkey> CHECKSIG.
func CheckSigScript(pubkey []byte) ([]byte, error) {
	if len(pubkey) != PublicKeySize {
		return nil, errors.WithDetailf(ErrBadValue, "public key of %d bytes", len(pubkey))
	}
	return NewBuilder().EmitPush(pubkey).Emit(vm.OP_CHECKSIG, nil).Build()
}

// MultiSigScript returns a verification script requiring nrequired
// of pubkeys to have signed the container. Signatures must be
// supplied in key order. The result is:
// <nrequired> <pubkey>... <npubkeys> CHECKMULTISIG
func MultiSigScript(pubkeys [][]byte, nrequired int) ([]byte, error) {
	err := checkMultiSigParams(int64(nrequired), int64(len(pubkeys)))
	if err != nil {
		return nil, err
	}
	builder := NewBuilder()
	builder.EmitPush(nrequired)
	for _, key := range pubkeys {
		if len(key) != PublicKeySize {
			return nil, errors.WithDetailf(ErrBadValue, "public key of %d bytes", len(key))
		}
		builder.EmitPush(key)
	}
	builder.EmitPush(len(pubkeys)).Emit(vm.OP_CHECKMULTISIG, nil)
	return builder.Build()
}

// ParseMultiSigScript is the inverse of MultiSigScript.
func ParseMultiSigScript(script []byte) ([][]byte, int, error) {
	pops, err := vm.ParseProgram(script)
	if err != nil {
		return nil, 0, err
	}
	if len(pops) < 4 {
		return nil, 0, vm.ErrShortProgram
	}
	if pops[len(pops)-1].Op != vm.OP_CHECKMULTISIG {
		return nil, 0, errors.Wrap(ErrMultisigFormat, "no CHECKMULTISIG")
	}
	npubkeys, err := smallInt(pops[len(pops)-2])
	if err != nil {
		return nil, 0, errors.Wrap(err, "parsing npubkeys")
	}
	if int(npubkeys) != len(pops)-3 {
		return nil, 0, errors.WithDetailf(ErrMultisigFormat, "%d keys declared, %d present", npubkeys, len(pops)-3)
	}
	nrequired, err := smallInt(pops[0])
	if err != nil {
		return nil, 0, errors.Wrap(err, "parsing nrequired")
	}
	err = checkMultiSigParams(nrequired, npubkeys)
	if err != nil {
		return nil, 0, err
	}

	pubkeys := make([][]byte, 0, npubkeys)
	for _, pop := range pops[1 : len(pops)-2] {
		if len(pop.Data) != PublicKeySize {
			return nil, 0, errors.WithDetailf(ErrMultisigFormat, "public key of %d bytes", len(pop.Data))
		}
		pubkeys = append(pubkeys, pop.Data)
	}
	return pubkeys, int(nrequired), nil
}

// InvocationScript returns the push-only script that supplies sigs
// to a verification script.
func InvocationScript(sigs ...[]byte) ([]byte, error) {
	builder := NewBuilder()
	for _, sig := range sigs {
		builder.EmitPush(sig)
	}
	return builder.Build()
}

// smallInt decodes the integer pushed by a push operation.
func smallInt(pop vm.Operation) (int64, error) {
	switch {
	case pop.Op == vm.OP_PUSH0:
		return 0, nil
	case pop.Op >= vm.OP_PUSH1 && pop.Op <= vm.OP_PUSH16:
		return int64(pop.Op-vm.OP_PUSH1) + 1, nil
	case pop.Op >= vm.OP_PUSHBYTES1 && pop.Op <= vm.OP_PUSHBYTES75:
		n, err := vm.ToBigInt(vm.ByteArray(pop.Data))
		if err != nil || !n.IsInt64() {
			return 0, ErrMultisigFormat
		}
		return n.Int64(), nil
	}
	return 0, errors.WithDetailf(ErrMultisigFormat, "%s is not an integer push", pop.Op)
}

func checkMultiSigParams(nrequired, npubkeys int64) error {
	if nrequired < 0 {
		return errors.WithDetail(ErrBadValue, "negative quorum")
	}
	if npubkeys < 0 {
		return errors.WithDetail(ErrBadValue, "negative pubkey count")
	}
	if nrequired > npubkeys {
		return errors.WithDetail(ErrBadValue, "quorum too big")
	}
	if nrequired == 0 {
		return errors.WithDetail(ErrBadValue, "empty quorum")
	}
	return nil
}
