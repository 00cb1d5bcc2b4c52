package bucket

import "testing"

func TestAssignBoundaries(t *testing.T) {
	tests := []struct {
		bytes     int64
		wantLabel string
		wantRank  int
	}{
		{0, "zero", 0},
		{1, "1B-8KiB", 1},
		{8*KiB - 1, "1B-8KiB", 1},
		{8 * KiB, "8KiB-64KiB", 2},
		{64*KiB - 1, "8KiB-64KiB", 2},
		{64 * KiB, "64KiB-512KiB", 3},
		{512 * KiB, "512KiB-4MiB", 4},
		{4 * MiB, "4MiB-32MiB", 5},
		{32 * MiB, "32MiB-256MiB", 6},
		{256 * MiB, "256MiB-2GiB", 7},
		{2*GiB - 1, "256MiB-2GiB", 7},
		{2 * GiB, ">2GiB", 8},
		{100 * GiB, ">2GiB", 8},
	}

	for _, tt := range tests {
		got := Assign(tt.bytes)
		if got.Label != tt.wantLabel || got.Rank != tt.wantRank {
			t.Errorf("Assign(%d) = {%q, %d}, want {%q, %d}",
				tt.bytes, got.Label, got.Rank, tt.wantLabel, tt.wantRank)
		}
	}
}

func TestAssignRankMonotonic(t *testing.T) {
	prev := Assign(0)
	for bytes := int64(1); bytes <= 4*GiB; bytes *= 2 {
		got := Assign(bytes)
		if got.Rank < prev.Rank {
			t.Errorf("rank decreased: Assign(%d) = %d after %d", bytes, got.Rank, prev.Rank)
		}
		prev = got
	}
}

func TestLabelsOrdered(t *testing.T) {
	labels := Labels()
	if len(labels) != Count() {
		t.Fatalf("Labels() has %d entries, want %d", len(labels), Count())
	}
	if labels[0] != "zero" || labels[len(labels)-1] != ">2GiB" {
		t.Errorf("Labels() = %v, want zero first and >2GiB last", labels)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		op       string
		wantName string
		wantRank int
		wantOK   bool
	}{
		{"GET", "GET", 98, true},
		{"PUT", "PUT", 99, true},
		{"LIST", "META", 97, true},
		{"HEAD", "META", 97, true},
		{"DELETE", "META", 97, true},
		{"STAT", "META", 97, true},
		{"MULTIPART", "", 0, false},
		{"get", "", 0, false},
		{"", "", 0, false},
	}

	for _, tt := range tests {
		got, ok := Categorize(tt.op)
		if ok != tt.wantOK {
			t.Errorf("Categorize(%q) ok = %v, want %v", tt.op, ok, tt.wantOK)
			continue
		}
		if ok && (got.Name != tt.wantName || got.Rank != tt.wantRank) {
			t.Errorf("Categorize(%q) = {%q, %d}, want {%q, %d}",
				tt.op, got.Name, got.Rank, tt.wantName, tt.wantRank)
		}
	}
}

func TestCategoryOps(t *testing.T) {
	if got := len(Meta.Ops()); got != 4 {
		t.Errorf("META covers %d ops, want 4", got)
	}
	for _, op := range Meta.Ops() {
		cat, ok := Categorize(op)
		if !ok || cat.Name != "META" {
			t.Errorf("Categorize(%q) = %v, %v, want META", op, cat, ok)
		}
	}
	if got := Get.Ops(); len(got) != 1 || got[0] != "GET" {
		t.Errorf("GET covers %v", got)
	}
}
