package book

import (
	"math/rand"
	"testing"
)

func treeKeys(tr *rbTree[int]) []int64 {
	var keys []int64
	tr.walk(func(k int64, _ int) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

func TestTreeAscendingWalk(t *testing.T) {
	tr := newRBTree[int](askLess)
	for _, k := range []int64{5, 1, 9, 3, 7} {
		tr.getOrCreate(k, func() int { return int(k) })
	}
	want := []int64{1, 3, 5, 7, 9}
	got := treeKeys(tr)
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestTreeBidOrdering(t *testing.T) {
	tr := newRBTree[int](bidLess)
	for _, k := range []int64{5, 0, 9, 3} {
		tr.getOrCreate(k, func() int { return int(k) })
	}
	// market key first, then descending
	want := []int64{0, 9, 5, 3}
	got := treeKeys(tr)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestTreeGetOrCreateReusesValue(t *testing.T) {
	tr := newRBTree[int](askLess)
	calls := 0
	ctor := func() int { calls++; return 42 }
	tr.getOrCreate(7, ctor)
	tr.getOrCreate(7, ctor)
	if calls != 1 {
		t.Errorf("ctor calls = %d, want 1", calls)
	}
	if v, ok := tr.get(7); !ok || v != 42 {
		t.Errorf("get(7) = %v %v, want 42 true", v, ok)
	}
	if _, ok := tr.get(8); ok {
		t.Error("get(8) should miss")
	}
}

func TestTreeDelete(t *testing.T) {
	tr := newRBTree[int](askLess)
	for k := int64(1); k <= 10; k++ {
		tr.getOrCreate(k, func() int { return 0 })
	}
	for _, k := range []int64{1, 10, 5} {
		tr.delete(k)
	}
	if tr.len() != 7 {
		t.Fatalf("len = %d, want 7", tr.len())
	}
	want := []int64{2, 3, 4, 6, 7, 8, 9}
	got := treeKeys(tr)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestTreeFirstAndNext(t *testing.T) {
	tr := newRBTree[int](askLess)
	if tr.first() != nil {
		t.Fatal("first of an empty tree should be nil")
	}
	for _, k := range []int64{4, 2, 8} {
		tr.getOrCreate(k, func() int { return 0 })
	}
	n := tr.first()
	var got []int64
	for n != nil {
		got = append(got, n.key)
		n = tr.next(n)
	}
	want := []int64{2, 4, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("successor chain = %v, want %v", got, want)
		}
	}
}

func TestTreeClear(t *testing.T) {
	tr := newRBTree[int](askLess)
	tr.getOrCreate(1, func() int { return 0 })
	tr.getOrCreate(2, func() int { return 0 })
	tr.clear()
	if !tr.empty() || tr.len() != 0 {
		t.Errorf("empty=%v len=%d after clear", tr.empty(), tr.len())
	}
	if tr.first() != nil {
		t.Error("first should be nil after clear")
	}
}

func TestTreeRandomChurn(t *testing.T) {
	tr := newRBTree[int](askLess)
	r := rand.New(rand.NewSource(1))
	live := map[int64]bool{}
	for i := 0; i < 5000; i++ {
		k := int64(r.Intn(500))
		if live[k] {
			tr.delete(k)
			delete(live, k)
		} else {
			tr.getOrCreate(k, func() int { return 0 })
			live[k] = true
		}
	}
	if tr.len() != len(live) {
		t.Fatalf("len = %d, want %d", tr.len(), len(live))
	}
	keys := treeKeys(tr)
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("walk out of order at %d: %v >= %v", i, keys[i-1], keys[i])
		}
	}
	for _, k := range keys {
		if !live[k] {
			t.Fatalf("stale key %d", k)
		}
	}
}
