// Package addon implements the process-wide addon registry: a (kind,
// name) -> factory map, registered at process start by static registrars
// and at runtime by loader addons, consumed indirectly through
// Env.AddonCreateExtension / addon_destroy_extension.
//
// Grounded on xact/xreg/xreg.go's registry shape (a name-keyed map mutated
// under one lock during init, read lock-free off an immutable snapshot
// thereafter) generalized from "one kind of renewable" to "any addon kind
// (extension, extension group, protocol, addon loader)."
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package addon

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/ten-framework/ten-go/cmn"
	"github.com/ten-framework/ten-go/cmn/nlog"
)

// Kind distinguishes what a registered factory produces: the registry is
// keyed by (addon_kind, addon_name).
type Kind int

const (
	KindExtension Kind = iota
	KindExtensionGroup
	KindProtocol
	KindAddonLoader
)

func (k Kind) String() string {
	switch k {
	case KindExtension:
		return "extension"
	case KindExtensionGroup:
		return "extension_group"
	case KindProtocol:
		return "protocol"
	case KindAddonLoader:
		return "addon_loader"
	default:
		return "unknown"
	}
}

// Factory is a registration: a pair of callbacks. create_instance
// and destroy_instance are invoked indirectly via Env's addon_create/
// destroy_extension surface (tenv.Env.AddonCreateExtension).
type Factory struct {
	Kind Kind
	Name string

	// Create constructs a new instance named instanceName. ctx is an
	// opaque, addon-kind-specific argument (e.g. the owning App).
	Create func(instanceName string, ctx any) (any, error)

	// Destroy tears down instance previously returned by Create.
	Destroy func(instance any, ctx any) error
}

type key struct {
	kind Kind
	name string
}

// registry is the process-wide table. Mutation happens only during
// process start and addon loader init/deinit; lookups read from an
// atomically-swapped immutable snapshot so the hot path (extension
// instantiation during start-graph) never takes a lock.
type registry struct {
	mu       sync.Mutex // guards writes only
	snapshot atomic.Pointer[map[key]*Factory]
}

var global = newRegistry()

func newRegistry() *registry {
	r := &registry{}
	m := make(map[key]*Factory)
	r.snapshot.Store(&m)
	return r
}

// Register installs a factory. Safe to call concurrently; each call
// copies the snapshot (registration is not a hot path).
func Register(f *Factory) error {
	if f == nil || f.Name == "" {
		return cmn.NewError(cmn.InvalidArgument, "addon: factory requires a non-empty name")
	}
	global.mu.Lock()
	defer global.mu.Unlock()

	old := *global.snapshot.Load()
	k := key{f.Kind, f.Name}
	if _, exists := old[k]; exists {
		return cmn.NewError(cmn.Generic, "addon: %s %q already registered", f.Kind, f.Name)
	}
	next := make(map[key]*Factory, len(old)+1)
	for kk, vv := range old {
		next[kk] = vv
	}
	next[k] = f
	global.snapshot.Store(&next)
	nlog.Infof("addon: registered %s %q", f.Kind, f.Name)
	return nil
}

// Lookup finds the factory for (kind, name). Lock-free.
func Lookup(kind Kind, name string) (*Factory, bool) {
	m := *global.snapshot.Load()
	f, ok := m[key{kind, name}]
	return f, ok
}

// disableUnregisterEnvVar names the env var multi-app-in-one-process test
// harnesses set so closing one app's addons doesn't unregister factories
// other apps still need.
const disableUnregisterEnvVar = "TEN_DISABLE_ADDON_UNREGISTER_AFTER_APP_CLOSE"

// Unregister removes a factory, unless disableUnregisterEnvVar is set,
// in which case it is a documented no-op.
func Unregister(kind Kind, name string) {
	if os.Getenv(disableUnregisterEnvVar) != "" {
		nlog.Infof("addon: %s unregister of %q skipped (%s set)", kind, name, disableUnregisterEnvVar)
		return
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	old := *global.snapshot.Load()
	k := key{kind, name}
	if _, exists := old[k]; !exists {
		return
	}
	next := make(map[key]*Factory, len(old))
	for kk, vv := range old {
		if kk != k {
			next[kk] = vv
		}
	}
	global.snapshot.Store(&next)
}

// TestReset clears the registry; test-only.
func TestReset() { global = newRegistry() }
