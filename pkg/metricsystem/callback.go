// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

package metricsystem

import (
	"github.com/pulse-metrics/pulse/pkg/logger"
)

// Callback hooks into the system lifecycle. Callbacks run
// synchronously in registration order around Start and Stop; a
// misbehaving callback is logged and suppressed, never fatal.
type Callback interface {
	PreStart()
	PostStart()
	PreStop()
	PostStop()
}

// NopCallback implements Callback with empty hooks, for embedding.
type NopCallback struct{}

func (NopCallback) PreStart()  {}
func (NopCallback) PostStart() {}
func (NopCallback) PreStop()   {}
func (NopCallback) PostStop()  {}

// postStartCallback invokes fn on every PostStart; used to re-register
// sources and sinks when the system restarts.
type postStartCallback struct {
	NopCallback
	fn func()
}

func (c *postStartCallback) PostStart() { c.fn() }

// callbackProxy wraps user callbacks so panics inside them are logged
// and swallowed.
type callbackProxy struct {
	cb Callback
}

func proxyCallback(cb Callback) Callback {
	return &callbackProxy{cb: cb}
}

func (p *callbackProxy) PreStart()  { p.guard("preStart", p.cb.PreStart) }
func (p *callbackProxy) PostStart() { p.guard("postStart", p.cb.PostStart) }
func (p *callbackProxy) PreStop()   { p.guard("preStop", p.cb.PreStop) }
func (p *callbackProxy) PostStop()  { p.guard("postStop", p.cb.PostStop) }

func (p *callbackProxy) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("hook", name).
				Warnf("Caught panic in callback: %v", r)
		}
	}()
	fn()
}
