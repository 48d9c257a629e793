package idhash

import "testing"

func TestComputeSessionID(t *testing.T) {
	id := ComputeSessionID("MintABC", 1700000000000000000)

	if len(id) != 32 {
		t.Errorf("length = %d, want 32", len(id))
	}
	if id != ComputeSessionID("MintABC", 1700000000000000000) {
		t.Error("not deterministic")
	}
	if id == ComputeSessionID("MintABC", 1700000000000000001) {
		t.Error("different start times produced the same ID")
	}
	if id == ComputeSessionID("MintXYZ", 1700000000000000000) {
		t.Error("different mints produced the same ID")
	}
}

func TestComputeOrderID(t *testing.T) {
	session := ComputeSessionID("MintABC", 1700000000000000000)

	id0 := ComputeOrderID(session, 0)
	id1 := ComputeOrderID(session, 1)

	if len(id0) != 32 {
		t.Errorf("length = %d, want 32", len(id0))
	}
	if id0 == id1 {
		t.Error("different sequences produced the same ID")
	}
	if id0 != ComputeOrderID(session, 0) {
		t.Error("not deterministic")
	}
	if id0 == ComputeOrderID("othersession", 0) {
		t.Error("different sessions produced the same ID")
	}
}
