package dispatch

import "fmt"

// Arg describes one positional argument of an operator.
//
// Alias marks arguments that alias an output of the call. Mutates marks
// aliased arguments that the kernel writes (in-place and out= style
// operators). An aliased, non-mutated argument belongs to a view operator:
// the output shares storage with the input but nothing is written.
type Arg struct {
	Name    string
	Alias   bool
	Mutates bool
}

// Schema is the positional argument schema of one operator, fixed at
// registration time. Interception layers consult it to decide which slots
// are tensor-bearing outputs; they never inspect slot contents to guess.
type Schema struct {
	Args    []Arg
	Returns int
}

// AliasProfile classifies the operator's aliasing behavior.
//
// aliased is false for pure out-of-place operators. When aliased is true,
// write tells whether the aliased arguments are mutated (in-place/out=
// operator) or read-only views. Operators mixing mutable and non-mutable
// aliased arguments are rejected: a generic interception layer cannot
// reconcile them and they must be handled manually.
func (s Schema) AliasProfile() (aliased, write bool, err error) {
	for _, a := range s.Args {
		if !a.Alias {
			continue
		}
		if aliased && write != a.Mutates {
			return false, false, fmt.Errorf(
				"operator mixes mutable and non-mutable aliased arguments (arg %q); "+
					"generic interception cannot handle it", a.Name)
		}
		aliased = true
		write = a.Mutates
	}
	return aliased, write, nil
}
