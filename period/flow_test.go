package period

import (
	"errors"
	"testing"
)

func TestNewFlow_CollapsesAndSortsLinks(t *testing.T) {
	f := NewFlow(1, 0, 10, lnk(3, 4), lnk(1, 2), lnk(3, 4), lnk(1, 0))
	want := []Link{lnk(1, 0), lnk(1, 2), lnk(3, 4)}
	if len(f.Links) != len(want) {
		t.Fatalf("links = %v, want %v", f.Links, want)
	}
	for i := range want {
		if f.Links[i] != want[i] {
			t.Errorf("links[%d] = %v, want %v", i, f.Links[i], want[i])
		}
	}
	if f.AddLink(lnk(1, 2)) {
		t.Error("AddLink of an existing link should report false")
	}
}

func TestLink_IsDirectional(t *testing.T) {
	a := NewFlow(1, 0, 10, lnk(1, 2))
	b := NewFlow(2, 0, 10, lnk(2, 1))
	if a.SharesLink(b) {
		t.Error("1->2 and 2->1 are different links")
	}
	if lnk(1, 2).String() != "1->2" {
		t.Errorf("String() = %q", lnk(1, 2).String())
	}
}

func TestFlow_Overlaps_TouchingIntervalsDoNotOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b *Flow
		want bool
	}{
		{"nested", NewFlow(1, 0, 10), NewFlow(2, 2, 5), true},
		{"partial", NewFlow(1, 0, 10), NewFlow(2, 5, 15), true},
		{"touching", NewFlow(1, 0, 10), NewFlow(2, 10, 20), false},
		{"disjoint", NewFlow(1, 0, 10), NewFlow(2, 11, 20), false},
		{"instant inside", NewFlow(1, 0, 10), NewFlow(2, 5, 5), true},
		{"instant at start", NewFlow(1, 0, 10), NewFlow(2, 0, 0), false},
		{"two instants", NewFlow(1, 5, 5), NewFlow(2, 5, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("b.Overlaps(a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlows_AddRejectsDuplicates(t *testing.T) {
	fs := make(Flows)
	if err := fs.Add(NewFlow(7, 0, 1, lnk(0, 1))); err != nil {
		t.Fatal(err)
	}
	err := fs.Add(NewFlow(7, 2, 3, lnk(0, 1)))
	if !errors.Is(err, ErrInvalidFlow) {
		t.Errorf("err = %v, want ErrInvalidFlow", err)
	}
}

func TestFlows_IDsSorted(t *testing.T) {
	fs := flowsOf(NewFlow(9, 0, 1), NewFlow(2, 0, 1), NewFlow(5, 0, 1))
	ids := fs.IDs()
	want := []FlowID{2, 5, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", ids, want)
		}
	}
}
