// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metrics

// Info describes a metric, tag, record or registry: a name plus a
// human readable description. Instances obtained through NewInfo are
// interned, so two Infos with equal name and description share
// identity and compare equal by pointer.
type Info struct {
	name        string
	description string
}

func (i *Info) Name() string { return i.name }

func (i *Info) Description() string { return i.description }

func (i *Info) String() string {
	return i.name + ": " + i.description
}

// ContextInfo is the well known descriptor of the context tag attached
// to records for sink-side routing and filtering.
var ContextInfo = NewInfo("Context", "Metrics context")
