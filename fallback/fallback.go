// Copyright 2025 Strand Runtime. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fallback provides the public API for generic operator
// interception.
//
// An Interceptor registered as a dispatch key's catch-all fallback applies a
// Contract's transform to every tensor argument of an intercepted call,
// forwards the call with a reduced key set, and reconciles mutable outputs
// back into the caller's representation. Operators the transform is a no-op
// for opt out via the registry's fallthrough table.
//
// Example:
//
//	reg := dispatch.NewRegistry()
//	// ... register operators and backend kernels ...
//	ic, err := fallback.RegisterCompositeView(reg)
//	reg.Freeze()
package fallback

import (
	"github.com/strand-ml/strand/internal/dispatch"
	"github.com/strand-ml/strand/internal/fallback"
)

// Contract defines how a single tensor is rewritten on the way into a
// wrapped kernel and reconciled on the way out.
type Contract = fallback.Contract

// Interceptor is the catch-all interception handler for one capability key.
type Interceptor = fallback.Interceptor

// CompositeViewContract rewrites tensors to a flat composite layout before
// a kernel runs and reconciles results back through the square layout.
type CompositeViewContract = fallback.CompositeViewContract

// Interception errors.
type (
	// TransformError reports a failed input transform.
	TransformError = fallback.TransformError
	// ReconciliationError reports a failed output reconciliation.
	ReconciliationError = fallback.ReconciliationError
)

// ErrReentrancy is the internal invariant failure raised when the
// triggering key survives key reduction.
var ErrReentrancy = fallback.ErrReentrancy

// NewInterceptor builds an interceptor for key that forwards through reg.
func NewInterceptor(reg *dispatch.Registry, key dispatch.Key, contract func() Contract) *Interceptor {
	return fallback.NewInterceptor(reg, key, contract)
}

// NewCompositeViewContract returns the contract for the CompositeView key.
func NewCompositeViewContract() *CompositeViewContract {
	return fallback.NewCompositeViewContract()
}

// RegisterCompositeView installs the composite-view interception on reg.
func RegisterCompositeView(reg *dispatch.Registry) (*Interceptor, error) {
	return fallback.RegisterCompositeView(reg)
}
