package kv

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.k6.io/k6/js/modulestest"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

// TestOpenKvConcurrentInitializationSharesStore verifies that two VUs racing
// through openKv() end up on the same store and that both hold a reference.
//
// Not parallel: it installs the package-level creation barrier.
func TestOpenKvConcurrentInitializationSharesStore(t *testing.T) {
	rootModule := New()

	primaryRuntime := modulestest.NewRuntime(t)
	secondaryRuntime := modulestest.NewRuntime(t)

	primaryModuleInstance := rootModule.NewModuleInstance(primaryRuntime.VU).(*ModuleInstance)
	secondaryModuleInstance := rootModule.NewModuleInstance(secondaryRuntime.VU).(*ModuleInstance)

	primaryOptions := primaryRuntime.VU.Runtime().ToValue(map[string]any{
		"initialCapacity": 10,
	})
	secondaryOptions := secondaryRuntime.VU.Runtime().ToValue(map[string]any{
		"initialCapacity": 10,
	})

	var (
		enterCount   atomic.Uint32
		firstEntered = make(chan struct{})
		firstRelease = make(chan struct{})
	)

	testOpenKVStoreBarrierMu.Lock()
	testOpenKVStoreBarrier = func() {
		if enterCount.Add(1) != 1 {
			return
		}

		close(firstEntered)
		<-firstRelease
	}
	testOpenKVStoreBarrierMu.Unlock()

	defer func() {
		testOpenKVStoreBarrierMu.Lock()
		testOpenKVStoreBarrier = nil
		testOpenKVStoreBarrierMu.Unlock()
	}()

	results := make(chan *ModuleInstance, 2)

	var wg sync.WaitGroup

	wg.Go(func() {
		primaryModuleInstance.OpenKv(primaryOptions)

		results <- primaryModuleInstance
	})

	wg.Go(func() {
		secondaryModuleInstance.OpenKv(secondaryOptions)

		results <- secondaryModuleInstance
	})

	<-firstEntered
	close(firstRelease)

	firstDone := <-results
	secondDone := <-results

	wg.Wait()

	firstStore := firstDone.kv.store
	secondStore := secondDone.kv.store

	require.NotNil(t, firstStore, "first KV instance should have a store")
	require.NotNil(t, secondStore, "second KV instance should have a store")

	require.Same(t, firstStore, secondStore, "concurrent OpenKv calls must receive the same backing store instance")
	require.Same(t, firstStore, rootModule.store, "root module store must be shared across VUs")
	assert.Equal(t, 2, rootModule.refs)
	assert.Equal(t, 10, firstStore.Cap())

	require.NoError(t, firstDone.kv.Close())
	require.NoError(t, secondDone.kv.Close())
	assert.Nil(t, rootModule.store)
}

// TestOpenKvRejectsConflictingOptions verifies that a second openKv() with
// different limits throws while the first store stays usable.
func TestOpenKvRejectsConflictingOptions(t *testing.T) {
	t.Parallel()

	rootModule := New()

	runtime := modulestest.NewRuntime(t)
	moduleInstance := rootModule.NewModuleInstance(runtime.VU).(*ModuleInstance)

	smallOptions := runtime.VU.Runtime().ToValue(map[string]any{
		"initialCapacity": 4,
	})

	largeOptions := runtime.VU.Runtime().ToValue(map[string]any{
		"initialCapacity": 64,
	})

	require.NotPanics(t, func() {
		moduleInstance.OpenKv(smallOptions)
	})

	require.Panics(t, func() {
		moduleInstance.OpenKv(largeOptions)
	})

	assert.Equal(t, 1, rootModule.refs, "rejected openKv must not take a reference")

	t.Cleanup(func() {
		if moduleInstance.kv != nil {
			_ = moduleInstance.kv.Close()
		}
	})
}

// TestOpenKvAllowsEquivalentOptions verifies that automatic and explicit default
// values are treated as the same configuration.
func TestOpenKvAllowsEquivalentOptions(t *testing.T) {
	t.Parallel()

	rootModule := New()
	runtime := modulestest.NewRuntime(t)
	moduleInstance := rootModule.NewModuleInstance(runtime.VU).(*ModuleInstance)

	implicitOptions := runtime.VU.Runtime().ToValue(map[string]any{
		"maxBytes": "1 KiB",
	})

	explicitOptions := runtime.VU.Runtime().ToValue(map[string]any{
		"initialCapacity": store.DefaultInitialCapacity,
		"maxBytes":        1024,
	})

	require.NotPanics(t, func() {
		moduleInstance.OpenKv(implicitOptions)
	})

	first := moduleInstance.kv

	require.NotPanics(t, func() {
		moduleInstance.OpenKv(explicitOptions)
	})

	second := moduleInstance.kv

	require.Same(t, first.store, second.store)
	assert.Equal(t, 2, rootModule.refs)

	t.Cleanup(func() {
		_ = first.Close()
		_ = second.Close()
	})
}

// TestOpenKvRejectsInvalidOptions verifies that malformed options throw before a
// store is created.
func TestOpenKvRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	rootModule := New()
	runtime := modulestest.NewRuntime(t)
	moduleInstance := rootModule.NewModuleInstance(runtime.VU).(*ModuleInstance)

	for _, options := range []map[string]any{
		{"initialCapacity": -1},
		{"maxCapacity": -1},
		{"initialCapacity": 32, "maxCapacity": 16},
		{"maxBytes": "lots"},
		{"maxBytes": -10},
	} {
		require.Panics(t, func() {
			moduleInstance.OpenKv(runtime.VU.Runtime().ToValue(options))
		}, "options %v must be rejected", options)
	}

	assert.Nil(t, rootModule.store)
}

// TestKVClose_DestroysStoreOnLastReference verifies the reference counting
// between VUs: the store survives until every KV is closed.
func TestKVClose_DestroysStoreOnLastReference(t *testing.T) {
	t.Parallel()

	rootModule := New()

	firstRuntime := modulestest.NewRuntime(t)
	secondRuntime := modulestest.NewRuntime(t)

	firstInstance := rootModule.NewModuleInstance(firstRuntime.VU).(*ModuleInstance)
	secondInstance := rootModule.NewModuleInstance(secondRuntime.VU).(*ModuleInstance)

	firstInstance.OpenKv(nil)
	secondInstance.OpenKv(nil)

	shared := firstInstance.kv.store

	_, err := shared.Upsert("k", "v")
	require.NoError(t, err)

	require.NoError(t, firstInstance.kv.Close())
	require.NoError(t, firstInstance.kv.Close(), "close must be idempotent")

	assert.Equal(t, 1, rootModule.refs, "a repeated close must not drop a second reference")
	assert.False(t, shared.Stats().Destroyed)

	value, err := secondInstance.kv.store.Lookup("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	require.NoError(t, secondInstance.kv.Close())

	assert.Nil(t, rootModule.store)
	assert.True(t, shared.Stats().Destroyed)
	assert.Zero(t, shared.Stats().BytesInUse)

	// A fresh openKv after destruction creates a new store.
	firstInstance.OpenKv(nil)
	require.NotSame(t, shared, firstInstance.kv.store)
	assert.Zero(t, firstInstance.kv.store.Len())

	t.Cleanup(func() {
		_ = firstInstance.kv.Close()
	})
}

// TestKVClose_WithoutStore verifies that closing an unbound KV reports that the
// database is not open.
func TestKVClose_WithoutStore(t *testing.T) {
	t.Parallel()

	runtime := modulestest.NewRuntime(t)
	unbound := NewKV(runtime.VU, nil, nil)

	var kvErr *Error

	require.ErrorAs(t, unbound.Close(), &kvErr)
	assert.Equal(t, DatabaseNotOpenError, kvErr.Name)
}
