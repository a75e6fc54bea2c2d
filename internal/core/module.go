// Package core provides the module system foundation for mailvet.
package core

// ModuleID uniquely identifies a module, namespaced by category
// (e.g. "channel.telegram", "gateway.http", "store.sqlite").
type ModuleID string

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique module identifier.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the minimal interface every module implements.
// Lifecycle interfaces (Configurable, Provisioner, Validator, Starter,
// Stopper) are optional and detected via type assertion.
type Module interface {
	ModuleInfo() ModuleInfo
}
