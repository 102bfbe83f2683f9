package errors_test

import (
	"fmt"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

var ErrKeyTooLong = errors.New("storage key too long")

func ExampleSub() {
	err := put(make([]byte, 2000))
	err = errors.Sub(ErrKeyTooLong, err)
	fmt.Println(errors.Root(err) == ErrKeyTooLong)
	// Output: true
}

func ExampleWithDetailf() {
	err := errors.WithDetailf(ErrKeyTooLong, "key is %d bytes", 2000)
	fmt.Println(errors.Detail(err))
	// Output: key is 2000 bytes
}

func put(key []byte) error {
	if len(key) > 1024 {
		return errors.Wrap(errors.New("put failed"))
	}
	return nil
}
