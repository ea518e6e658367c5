package agent

import (
	"github.com/entrhq/scout/pkg/agent/tools"
)

// Tools returns the registered tools in registration order.
func (a *Agent) Tools() []tools.Tool {
	a.toolsMu.RLock()
	defer a.toolsMu.RUnlock()

	list := make([]tools.Tool, 0, len(a.order))
	for _, name := range a.order {
		list = append(list, a.tools[name])
	}
	return list
}

// getTool retrieves a tool by name (thread-safe)
func (a *Agent) getTool(name string) (tools.Tool, bool) {
	a.toolsMu.RLock()
	defer a.toolsMu.RUnlock()

	tool, exists := a.tools[name]
	return tool, exists
}

// trackError records a failed iteration and reports whether the circuit
// breaker should trip.
func (r *run) trackError(errMsg string) bool {
	r.lastErrors[r.errorIndex] = errMsg
	r.errorIndex = (r.errorIndex + 1) % len(r.lastErrors)
	r.consecutiveErrors++
	return r.consecutiveErrors >= maxConsecutiveErrors
}

// resetErrorTracking clears the error history after a successful tool call
func (r *run) resetErrorTracking() {
	r.lastErrors = [maxConsecutiveErrors]string{}
	r.errorIndex = 0
	r.consecutiveErrors = 0
}

// recentErrors returns the tracked errors, oldest first.
func (r *run) recentErrors() []string {
	errs := make([]string, 0, len(r.lastErrors))
	for i := 0; i < len(r.lastErrors); i++ {
		msg := r.lastErrors[(r.errorIndex+i)%len(r.lastErrors)]
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}
