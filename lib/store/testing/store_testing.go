package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/kavirajk/kvs/lib/store"
)

// StoreFactory is a function that opens a store instance at the given path.
// The path may be a directory; the suite always passes a fresh temp dir and
// reuses it when a test needs to close and reopen the same store.
type StoreFactory func(path string) (store.IStore, error)

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, factory)
		})

		t.Run("RepeatedGet", func(t *testing.T) {
			testRepeatedGet(t, factory)
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory)
		})

		t.Run("RemoveMissing", func(t *testing.T) {
			testRemoveMissing(t, factory)
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustOpen(t testing.TB, factory StoreFactory, path string) store.IStore {
	t.Helper()
	s, err := factory(path)
	if err != nil {
		t.Fatalf("failed to open store at %s: %v", path, err)
	}
	return s
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	testKey := "test-key"
	testValue := []byte("test-value")

	if err := s.Set(testKey, testValue); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}
}

func testOverwrite(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	testKey := "test-key"

	if err := s.Set(testKey, []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(testKey, []byte("v2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after overwrite", testKey)
	}
	if !bytes.Equal(result, []byte("v2")) {
		t.Errorf("Expected value v2, got %s", result)
	}
}

func testGetMissing(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	_, exists, err := s.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get on a missing key must not fail, got: %v", err)
	}
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}
}

func testRepeatedGet(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	if err := s.Set("k", []byte("stable")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		result, exists, err := s.Get("k")
		if err != nil {
			t.Fatalf("Get #%d failed: %v", i, err)
		}
		if !exists || !bytes.Equal(result, []byte("stable")) {
			t.Errorf("Get #%d: expected stable/true, got %s/%v", i, result, exists)
		}
	}
}

func testRemove(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	if err := s.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Remove("k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, exists, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get after Remove failed: %v", err)
	}
	if exists {
		t.Errorf("Expected key to be gone after Remove")
	}

	// removing again must fail: the key no longer exists
	err = s.Remove("k")
	if !store.HasCode(err, store.RetCKeyNotFound) {
		t.Errorf("Expected RetCKeyNotFound on second Remove, got %v", err)
	}
}

func testRemoveMissing(t *testing.T, factory StoreFactory) {
	s := mustOpen(t, factory, t.TempDir())
	defer s.Close()

	if err := s.Set("present", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err := s.Remove("absent")
	if !store.HasCode(err, store.RetCKeyNotFound) {
		t.Errorf("Expected RetCKeyNotFound, got %v", err)
	}

	// a failed Remove must leave the store unchanged
	result, exists, err := s.Get("present")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists || !bytes.Equal(result, []byte("v")) {
		t.Errorf("Store changed by failed Remove: got %s/%v", result, exists)
	}
}

func testReopen(t *testing.T, factory StoreFactory) {
	dir := t.TempDir()

	s := mustOpen(t, factory, dir)
	if err := s.Set("a", []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("b", []byte("2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s = mustOpen(t, factory, dir)
	defer s.Close()

	_, exists, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed after reopen: %v", err)
	}
	if exists {
		t.Errorf("Expected removed key %q to stay gone after reopen", "a")
	}

	result, exists, err := s.Get("b")
	if err != nil {
		t.Fatalf("Get failed after reopen: %v", err)
	}
	if !exists || !bytes.Equal(result, []byte("2")) {
		t.Errorf("Expected b=2 after reopen, got %s/%v", result, exists)
	}
}

// testRealisticUsage drives a deterministic random mix of operations against
// the store and an in-memory model, then verifies they agree both before and
// after a close/reopen cycle.
func testRealisticUsage(t *testing.T, factory StoreFactory) {
	dir := t.TempDir()
	s := mustOpen(t, factory, dir)

	rng := rand.New(rand.NewSource(42))
	model := make(map[string][]byte)

	const numOperations = 2000
	const keySpread = 50

	for i := 0; i < numOperations; i++ {
		key := fmt.Sprintf("key-%d", rng.Intn(keySpread))

		switch rng.Intn(10) {
		case 0, 1: // remove
			_, present := model[key]
			err := s.Remove(key)
			if present && err != nil {
				t.Fatalf("op %d: Remove(%s) failed: %v", i, key, err)
			}
			if !present && !store.HasCode(err, store.RetCKeyNotFound) {
				t.Fatalf("op %d: Remove(%s) on absent key returned %v", i, key, err)
			}
			delete(model, key)
		case 2, 3, 4: // get
			want, present := model[key]
			got, exists, err := s.Get(key)
			if err != nil {
				t.Fatalf("op %d: Get(%s) failed: %v", i, key, err)
			}
			if exists != present || (present && !bytes.Equal(got, want)) {
				t.Fatalf("op %d: Get(%s) = %s/%v, want %s/%v", i, key, got, exists, want, present)
			}
		default: // set
			value := make([]byte, 16+rng.Intn(240))
			rng.Read(value)
			if err := s.Set(key, value); err != nil {
				t.Fatalf("op %d: Set(%s) failed: %v", i, key, err)
			}
			model[key] = value
		}
	}

	verify := func(label string) {
		for key, want := range model {
			got, exists, err := s.Get(key)
			if err != nil {
				t.Fatalf("%s: Get(%s) failed: %v", label, key, err)
			}
			if !exists {
				t.Errorf("%s: key %s missing", label, key)
				continue
			}
			if !bytes.Equal(got, want) {
				t.Errorf("%s: value mismatch for key %s", label, key)
			}
		}
	}

	verify("before reopen")

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	s = mustOpen(t, factory, dir)
	defer s.Close()

	verify("after reopen")
}
