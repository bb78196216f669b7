package state

import "testing"

func TestBadgerStore_AssignRangeLoadAll(t *testing.T) {
	st, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("badger open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	applied, _, err := st.Assign("1", Assignment{DateUnixNano: 10})
	if err != nil || !applied {
		t.Fatalf("first assign: applied=%v err=%v", applied, err)
	}
	applied, a, err := st.Assign("1", Assignment{DateUnixNano: 11})
	if err != nil || applied || a.DateUnixNano != 10 {
		t.Fatalf("second assign: applied=%v a=%+v err=%v", applied, a, err)
	}

	if err := st.LoadAll(map[string]Assignment{"5": {DateUnixNano: 50}, "6": {DateUnixNano: 60}}); err != nil {
		t.Fatalf("load all: %v", err)
	}
	if _, ok := st.Get("1"); ok {
		t.Fatalf("key 1 should be dropped by LoadAll")
	}
	seen := map[string]int64{}
	if err := st.Range(func(key string, a Assignment) error { seen[key] = a.DateUnixNano; return nil }); err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(seen) != 2 || seen["5"] != 50 || seen["6"] != 60 {
		t.Fatalf("unexpected range result: %v", seen)
	}
}
