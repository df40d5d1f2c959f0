// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

import "errors"

var (
	// ErrDuplicateName is returned when a metric name is registered
	// twice within one registry.
	ErrDuplicateName = errors.New("metric name already exists")

	// ErrNoTaggedFields is returned by BuildSource for an object with
	// neither tagged metric fields nor a Source implementation.
	ErrNoTaggedFields = errors.New("no tagged metric fields found")

	// ErrHybridNeedsRegistry is returned by BuildSource for an object
	// that implements Source and declares tagged metric fields but
	// exposes no registry field to deposit them into.
	ErrHybridNeedsRegistry = errors.New("hybrid source: registry field required")
)
