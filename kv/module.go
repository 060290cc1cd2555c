package kv

import (
	"sync"

	"github.com/grafana/sobek"
	"github.com/sirupsen/logrus"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

type (
	// RootModule is a module singleton created once per test process.
	// It owns the shared Store used by all VUs.
	RootModule struct {
		// store is the shared store instance, created on first openKv().
		store store.Store

		// opts holds the options used when the store was created.
		opts Options

		// refs counts the KV objects currently holding the store.
		refs int

		// mu protects store creation, reference counting and destruction.
		mu sync.Mutex
	}

	// ModuleInstance is created per VU.
	// It holds the per-VU JS bindings and a pointer
	// to the RootModule to access the shared store.
	ModuleInstance struct {
		vu modules.VU
		rm *RootModule
		// kv is the most recently opened KV object of this VU.
		kv *KV
	}
)

// Compile-time interface assertions.
var (
	_ modules.Instance = new(ModuleInstance)
	_ modules.Module   = new(RootModule)
)

// New returns a pointer to a new RootModule instance.
func New() *RootModule {
	return &RootModule{}
}

// NewModuleInstance implements modules.Module.
// It creates a per-VU instance wired to the RootModule (which owns the shared store).
func (rm *RootModule) NewModuleInstance(vu modules.VU) modules.Instance {
	return &ModuleInstance{
		vu: vu,
		rm: rm,
	}
}

// Exports implements modules.Instance and exposes
// the JavaScript API surface for this module.
func (mi *ModuleInstance) Exports() modules.Exports {
	return modules.Exports{
		Named: map[string]any{
			"openKv": mi.OpenKv,
		},
	}
}

// OpenKv parses user options, creates the shared store (once),
// and returns a per-VU KV object bound to that shared store.
//
// Concurrency & visibility guarantees:
//   - The first successful call to OpenKv decides the store options.
//   - Later calls must pass equivalent options; conflicting ones throw.
//   - Every successful call takes a reference that kv.close() releases.
func (mi *ModuleInstance) OpenKv(opts sobek.Value) *sobek.Object {
	options, err := NewOptionsFrom(mi.vu, opts)
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	sharedStore, err := mi.rm.acquireStore(options, mi.logger())
	if err != nil {
		common.Throw(mi.vu.Runtime(), classifyError(err))
		return nil
	}

	mi.kv = NewKV(mi.vu, sharedStore, func() {
		mi.rm.releaseStore(sharedStore)
	})

	return mi.vu.Runtime().ToValue(mi.kv).ToObject(mi.vu.Runtime())
}

// logger returns the k6 logger of the current context, if any.
func (mi *ModuleInstance) logger() logrus.FieldLogger {
	if env := mi.vu.InitEnv(); env != nil && env.TestPreInitState != nil && env.Logger != nil {
		return env.Logger
	}

	if state := mi.vu.State(); state != nil && state.Logger != nil {
		return state.Logger
	}

	return nil
}
