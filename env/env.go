// Package env provides a convenient way to convert environment
// variables into Go data. It is similar in design to package
// flag: variables are registered on a Set, and Parse assigns
// them all at once.
package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// ErrBadValue is the root of every parse failure reported by Set.Parse.
var ErrBadValue = errors.New("bad environment value")

// A Set is a collection of registered environment variables.
// The zero value is ready to use.
type Set struct {
	// Lookup reads a variable. It defaults to os.LookupEnv.
	Lookup func(name string) (string, bool)

	funcs []func() error
}

// NewSet returns an empty Set reading from the process environment.
func NewSet() *Set {
	return &Set{}
}

func (s *Set) get(name string) string {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(name)
	return v
}

func badValue(name, v string, err error) error {
	return errors.WithDetailf(ErrBadValue, "%s=%q: %v", name, v, err)
}

// IntVar defines an int var with the specified
// name and default value. The argument p points
// to an int variable in which to store the
// value of the environment var.
func (s *Set) IntVar(p *int, name string, value int) {
	*p = value
	s.funcs = append(s.funcs, func() error {
		if v := s.get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return badValue(name, v, err)
			}
			*p = n
		}
		return nil
	})
}

// Int64Var is like IntVar for int64 values.
func (s *Set) Int64Var(p *int64, name string, value int64) {
	*p = value
	s.funcs = append(s.funcs, func() error {
		if v := s.get(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return badValue(name, v, err)
			}
			*p = n
		}
		return nil
	})
}

// BoolVar defines a bool var with the specified
// name and default value. Parsing uses strconv.ParseBool.
func (s *Set) BoolVar(p *bool, name string, value bool) {
	*p = value
	s.funcs = append(s.funcs, func() error {
		if v := s.get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return badValue(name, v, err)
			}
			*p = b
		}
		return nil
	})
}

// StringVar defines a string with the
// specified name and default value.
func (s *Set) StringVar(p *string, name string, value string) {
	*p = value
	s.funcs = append(s.funcs, func() error {
		if v := s.get(name); v != "" {
			*p = v
		}
		return nil
	})
}

// StringSliceVar defines a new string slice
// with the specified name. It expects env var name to
// be a list of items delimited by commas.
func (s *Set) StringSliceVar(p *[]string, name string, value ...string) {
	*p = value
	s.funcs = append(s.funcs, func() error {
		if v := s.get(name); v != "" {
			*p = strings.Split(v, ",")
		}
		return nil
	})
}

// Parse parses known env vars
// and assigns the values to the variables
// that were previously registered.
// Every variable is attempted; the first failure is returned.
func (s *Set) Parse() error {
	var first error
	for _, f := range s.funcs {
		if err := f(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
