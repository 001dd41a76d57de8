package registry

import (
	"errors"
	"sync"
	"testing"
)

func TestGetOrCreateBuildsOnlyOnce(t *testing.T) {
	builds := 0
	r := New(7, func(name string, cfg int) (int, error) {
		builds++
		return cfg, nil
	})

	v1, err := r.GetOrCreate("a")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	v2, err := r.GetOrCreate("a")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if v1 != 7 || v2 != 7 {
		t.Fatalf("v1=%d v2=%d, want both 7", v1, v2)
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1 (compute-if-absent)", builds)
	}
}

func TestGetOrCreateWithConfigIgnoresConfigOnExistingEntry(t *testing.T) {
	r := New(1, func(name string, cfg int) (int, error) { return cfg, nil })
	v1, _ := r.GetOrCreateWithConfig("x", 1)
	v2, _ := r.GetOrCreateWithConfig("x", 999)
	if v1 != 1 || v2 != 1 {
		t.Fatalf("v1=%d v2=%d, want both 1 since the second call should not rebuild", v1, v2)
	}
}

func TestGetOrCreatePropagatesBuildError(t *testing.T) {
	wantErr := errors.New("build failed")
	r := New(0, func(name string, cfg int) (int, error) { return 0, wantErr })
	_, err := r.GetOrCreate("a")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestGetReportsAbsence(t *testing.T) {
	r := New(0, func(name string, cfg int) (int, error) { return cfg, nil })
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get() ok = true for an entry never created")
	}
	r.GetOrCreate("present")
	if _, ok := r.Get("present"); !ok {
		t.Fatal("Get() ok = false for an entry that was created")
	}
}

func TestAllReturnsIndependentSnapshot(t *testing.T) {
	r := New(0, func(name string, cfg int) (int, error) { return cfg, nil })
	r.GetOrCreate("a")
	r.GetOrCreate("b")

	snapshot := r.All()
	if len(snapshot) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(snapshot))
	}
	r.GetOrCreate("c")
	if len(snapshot) != 2 {
		t.Fatal("snapshot mutated after a later registration, want it frozen at call time")
	}
}

func TestRemoveAllowsRebuild(t *testing.T) {
	builds := 0
	r := New(0, func(name string, cfg int) (int, error) {
		builds++
		return builds, nil
	})
	r.GetOrCreate("a")
	r.Remove("a")
	r.GetOrCreate("a")
	if builds != 2 {
		t.Fatalf("builds = %d, want 2 after Remove allowed a rebuild", builds)
	}
}

func TestConcurrentGetOrCreateBuildsExactlyOnce(t *testing.T) {
	var builds int
	var mu sync.Mutex
	r := New(0, func(name string, cfg int) (int, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return cfg, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.GetOrCreate("shared")
		}()
	}
	wg.Wait()
	if builds != 1 {
		t.Fatalf("builds = %d, want exactly 1 under concurrent access", builds)
	}
}
