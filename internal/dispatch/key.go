// Package dispatch implements operator registration and capability-keyed
// dispatch for the Strand tensor runtime.
//
// Every operator invocation carries a KeySet naming the capabilities active
// for that call. Dispatch resolves the highest-priority active key to a
// per-operator kernel, a per-key catch-all fallback, or a per-operator
// fallthrough that skips the key entirely.
package dispatch

import (
	"fmt"
	"math/bits"
	"strings"
)

// Key identifies one dispatch capability. Higher values have higher
// dispatch priority: cross-cutting capabilities sit above backend kernels
// so they get a chance to rewrite a call before it reaches real compute.
type Key int

// Dispatch keys, lowest priority first.
const (
	KeyBackend Key = iota // device kernels, the bottom of every call
	KeyAutograd
	KeyCompositeView // representation-changing view capability
	numKeys
)

// String returns the key's name.
func (k Key) String() string {
	switch k {
	case KeyBackend:
		return "Backend"
	case KeyAutograd:
		return "Autograd"
	case KeyCompositeView:
		return "CompositeView"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// KeyFromString parses a key name as used in capability manifests.
func KeyFromString(s string) (Key, error) {
	switch s {
	case "Backend":
		return KeyBackend, nil
	case "Autograd":
		return KeyAutograd, nil
	case "CompositeView":
		return KeyCompositeView, nil
	default:
		return 0, fmt.Errorf("unknown dispatch key %q", s)
	}
}

// KeySet is an unordered set of dispatch keys, stored as a bitset.
// The zero value is the empty set. KeySet values are immutable; Add and
// Remove return new sets.
type KeySet uint64

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...Key) KeySet {
	var s KeySet
	for _, k := range keys {
		s = s.Add(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s KeySet) Has(k Key) bool {
	return s&(1<<uint(k)) != 0
}

// Add returns s with k added.
func (s KeySet) Add(k Key) KeySet {
	return s | (1 << uint(k))
}

// Remove returns s with k removed.
func (s KeySet) Remove(k Key) KeySet {
	return s &^ (1 << uint(k))
}

// Empty reports whether the set has no keys.
func (s KeySet) Empty() bool {
	return s == 0
}

// Highest returns the highest-priority key in the set.
// ok is false for the empty set.
func (s KeySet) Highest() (k Key, ok bool) {
	if s == 0 {
		return 0, false
	}
	return Key(63 - bits.LeadingZeros64(uint64(s))), true
}

// Below returns the subset of s strictly lower in priority than k.
// This is the reduced set a capability handler forwards with: the handled
// key and everything above it are stripped, so re-dispatch cannot loop back.
func (s KeySet) Below(k Key) KeySet {
	return s & ((1 << uint(k)) - 1)
}

// String returns the set as "{KeyA|KeyB}".
func (s KeySet) String() string {
	var names []string
	for k := Key(0); k < numKeys; k++ {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return "{" + strings.Join(names, "|") + "}"
}
