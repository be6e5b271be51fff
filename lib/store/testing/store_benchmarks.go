package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/kavirajk/kvs/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation.
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory)
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory)
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory)
	})

	b.Run("Remove", func(b *testing.B) {
		benchmarkRemove(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, factory StoreFactory) {
	s := mustOpen(b, factory, b.TempDir())
	defer s.Close()

	value := []byte("benchmark-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set(fmt.Sprintf("key-%d", i), value); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}
}

func benchmarkSetExisting(b *testing.B, factory StoreFactory) {
	s := mustOpen(b, factory, b.TempDir())
	defer s.Close()

	value := []byte("benchmark-value")
	if err := s.Set("key", value); err != nil {
		b.Fatalf("Set failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set("key", value); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}
}

func benchmarkGet(b *testing.B, factory StoreFactory) {
	s := mustOpen(b, factory, b.TempDir())
	defer s.Close()

	const keySpread = 100
	for i := 0; i < keySpread; i++ {
		if err := s.Set(fmt.Sprintf("key-%d", i), []byte("benchmark-value")); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Get(fmt.Sprintf("key-%d", i%keySpread)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

func benchmarkRemove(b *testing.B, factory StoreFactory) {
	s := mustOpen(b, factory, b.TempDir())
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		key := fmt.Sprintf("key-%d", i)
		if err := s.Set(key, []byte("v")); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
		b.StartTimer()

		if err := s.Remove(key); err != nil {
			b.Fatalf("Remove failed: %v", err)
		}
	}
}

func benchmarkMixedUsage(b *testing.B, factory StoreFactory) {
	s := mustOpen(b, factory, b.TempDir())
	defer s.Close()

	rng := rand.New(rand.NewSource(42))
	const keySpread = 100

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", rng.Intn(keySpread))
		switch i % 4 {
		case 0, 1:
			if err := s.Set(key, []byte("v")); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
		case 2:
			if _, _, err := s.Get(key); err != nil {
				b.Fatalf("Get failed: %v", err)
			}
		case 3:
			err := s.Remove(key)
			if err != nil && !store.HasCode(err, store.RetCKeyNotFound) {
				b.Fatalf("Remove failed: %v", err)
			}
		}
	}
}
