package device

import (
	"fmt"
	"testing"
)

// setupBenchRegistry creates a registry pre-populated with n bindings.
func setupBenchRegistry(b *testing.B, n int) *Registry {
	b.Helper()
	reg := NewRegistry()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("dev-%04d", i)
		if err := reg.Put(id, newTestBinding(b, id)); err != nil {
			b.Fatalf("putting binding %d: %v", i, err)
		}
	}
	return reg
}

func BenchmarkRegistryGet(b *testing.B) {
	reg := setupBenchRegistry(b, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Get("dev-0050")
	}
}

func BenchmarkRegistryGet_Parallel(b *testing.B) {
	reg := setupBenchRegistry(b, 100)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			reg.Get("dev-0050")
		}
	})
}

func BenchmarkRegistryAll(b *testing.B) {
	reg := setupBenchRegistry(b, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.All()
	}
}
