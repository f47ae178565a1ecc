package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestMap_SetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}
	if !m.Has("a") {
		t.Fatal("Has(a) = false")
	}

	m.Delete("a")
	if m.Has("a") {
		t.Fatal("Has(a) = true after Delete")
	}
}

func TestMap_SetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Fatal("first SetIfAbsent should succeed")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("second SetIfAbsent should fail")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Fatalf("Get(k) = %q, want first", v)
	}
}

func TestMap_Pop(t *testing.T) {
	m := New[int]()
	m.Set("x", 7)

	v, ok := m.Pop("x")
	if !ok || v != 7 {
		t.Fatalf("Pop(x) = %d, %v", v, ok)
	}
	if _, ok := m.Pop("x"); ok {
		t.Fatal("second Pop should miss")
	}
}

func TestMap_CountRangeKeys(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	if got := m.Count(); got != 100 {
		t.Fatalf("Count = %d, want 100", got)
	}
	if got := len(m.Keys()); got != 100 {
		t.Fatalf("len(Keys) = %d, want 100", got)
	}

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return true
	})
	if seen != 100 {
		t.Fatalf("Range visited %d, want 100", seen)
	}

	m.Clear()
	if got := m.Count(); got != 0 {
		t.Fatalf("Count after Clear = %d", got)
	}
}

func TestMap_InvalidShardCountFallsBack(t *testing.T) {
	m := NewWithShards[int](3)
	if len(m.shards) != DefaultShardCount {
		t.Fatalf("shards = %d, want %d", len(m.shards), DefaultShardCount)
	}
}

func TestMap_ConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				if v, ok := m.Get(key); !ok || v != i {
					t.Errorf("Get(%s) = %d, %v", key, v, ok)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 8*200 {
		t.Fatalf("Count = %d, want %d", got, 8*200)
	}
}
