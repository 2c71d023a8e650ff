package dispatch

import (
	"errors"
	"fmt"
)

// Kernel executes one operator for one dispatch key. It reads the frame's
// argument slots positionally and replaces the result slots. keys holds the
// still-active portion of the call's key set (the resolved key included),
// which catch-all handlers use to compute the reduced set they forward with.
type Kernel func(op *Operator, keys KeySet, frame *Frame) error

// Operator identifies one registered operator. It is opaque to interception
// layers: they pass it through to Redispatch unmodified.
type Operator struct {
	name         string
	schema       Schema
	kernels      [numKeys]Kernel
	fallthroughs KeySet
}

// Name returns the operator's registered name.
func (o *Operator) Name() string {
	return o.name
}

// Schema returns the operator's argument schema.
func (o *Operator) Schema() Schema {
	return o.schema
}

// Registry errors.
var (
	ErrFrozen   = errors.New("registry is frozen")
	ErrNoKernel = errors.New("no kernel or fallback for any active dispatch key")
)

// Registry holds the operator table, per-key catch-all fallbacks, and
// per-operator fallthrough declarations.
//
// A Registry is built once at startup and then frozen; after Freeze all
// mutating calls fail and lookups are safe for concurrent use without
// locking. There is no runtime patching.
type Registry struct {
	ops           map[string]*Operator
	fallbacks     [numKeys]Kernel
	onFallthrough func(k Key, opName string)
	frozen        bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string]*Operator),
	}
}

// Register adds an operator with its schema and returns its handle.
func (r *Registry) Register(name string, schema Schema) (*Operator, error) {
	if r.frozen {
		return nil, ErrFrozen
	}
	if _, ok := r.ops[name]; ok {
		return nil, fmt.Errorf("operator %q already registered", name)
	}
	op := &Operator{name: name, schema: schema}
	r.ops[name] = op
	return op, nil
}

// Kernel binds fn as the operator's kernel for the given key.
func (r *Registry) Kernel(name string, key Key, fn Kernel) error {
	if r.frozen {
		return ErrFrozen
	}
	op, ok := r.ops[name]
	if !ok {
		return fmt.Errorf("operator %q not registered", name)
	}
	if op.kernels[key] != nil {
		return fmt.Errorf("operator %q already has a kernel for key %s", name, key)
	}
	op.kernels[key] = fn
	return nil
}

// SetFallback binds fn as the catch-all handler for the given key. Any
// operator dispatched at that key without its own kernel and without a
// fallthrough declaration runs the fallback.
func (r *Registry) SetFallback(key Key, fn Kernel) error {
	if r.frozen {
		return ErrFrozen
	}
	if r.fallbacks[key] != nil {
		return fmt.Errorf("key %s already has a fallback", key)
	}
	r.fallbacks[key] = fn
	return nil
}

// SetFallthrough declares that the named operators skip the given key
// entirely: dispatch at that key resolves directly to the next lower layer,
// never the key's fallback. This is the registration-time escape hatch for
// operators the key's capability is a no-op for.
func (r *Registry) SetFallthrough(key Key, names ...string) error {
	if r.frozen {
		return ErrFrozen
	}
	for _, name := range names {
		op, ok := r.ops[name]
		if !ok {
			return fmt.Errorf("operator %q not registered", name)
		}
		op.fallthroughs = op.fallthroughs.Add(key)
	}
	return nil
}

// OnFallthrough installs an observer invoked each time dispatch skips a key
// via an operator's fallthrough declaration. At most one observer.
func (r *Registry) OnFallthrough(fn func(k Key, opName string)) error {
	if r.frozen {
		return ErrFrozen
	}
	if r.onFallthrough != nil {
		return fmt.Errorf("fallthrough observer already installed")
	}
	r.onFallthrough = fn
	return nil
}

// Freeze seals the registry. Idempotent.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry is sealed.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Lookup returns the handle for a registered operator.
func (r *Registry) Lookup(name string) (*Operator, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("operator %q not registered", name)
	}
	return op, nil
}

// Call dispatches one operator invocation.
//
// The highest-priority key in keys wins. Resolution per key, in order:
// the operator's fallthrough declaration (skip to the next key), the
// operator's own kernel, the key's catch-all fallback. A key with nothing
// registered at all is skipped, so callers may carry capability keys that
// only some operators participate in. The kernel or fallback is expected to
// rewrite the frame's result slots in place before returning.
func (r *Registry) Call(op *Operator, keys KeySet, frame *Frame) error {
	for ks := keys; ; {
		k, ok := ks.Highest()
		if !ok {
			return fmt.Errorf("dispatch %s with %s: %w", op.name, keys, ErrNoKernel)
		}
		if op.fallthroughs.Has(k) {
			if r.onFallthrough != nil {
				r.onFallthrough(k, op.name)
			}
			ks = ks.Remove(k)
			continue
		}
		if fn := op.kernels[k]; fn != nil {
			return fn(op, ks, frame)
		}
		if fn := r.fallbacks[k]; fn != nil {
			return fn(op, ks, frame)
		}
		ks = ks.Remove(k)
	}
}

// Redispatch forwards an in-flight invocation to the next dispatch layer.
// Callers must pass a reduced key set with their own key (and everything
// above it) stripped; forwarding the original set would re-enter the same
// handler and loop forever.
func (r *Registry) Redispatch(op *Operator, keys KeySet, frame *Frame) error {
	return r.Call(op, keys, frame)
}
