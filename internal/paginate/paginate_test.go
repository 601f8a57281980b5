package paginate

import (
	"errors"
	"testing"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1}, {1, 1}, {50, 1}, {51, 2}, {120, 3}, {150, 3}, {151, 4},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.n, PageSize); got != tt.want {
			t.Errorf("TotalPages(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestSlice(t *testing.T) {
	items := ints(120)
	p, err := Slice(items, 3, PageSize)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if len(p.Items) != 20 || p.Items[0] != 101 || p.Offset != 100 || p.TotalPages != 3 {
		t.Errorf("unexpected page %+v", p)
	}

	_, err = Slice(items, 4, PageSize)
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if re.Max != 3 || re.Requested != 4 || re.Error() != "page 4 is out of range (1-3)" {
		t.Errorf("unexpected error %+v: %v", re, re)
	}
}

func TestSliceEmpty(t *testing.T) {
	p, err := Slice([]int(nil), 1, PageSize)
	if err != nil {
		t.Fatalf("empty list page 1 should be valid: %v", err)
	}
	if len(p.Items) != 0 || p.TotalPages != 1 {
		t.Errorf("unexpected page %+v", p)
	}
}

func TestPagesCoverList(t *testing.T) {
	for _, n := range []int{0, 3, 49, 50, 51, 120, 500} {
		items := ints(n)
		total := TotalPages(n, PageSize)
		sum := 0
		for page := 1; page <= total; page++ {
			p, err := Slice(items, page, PageSize)
			if err != nil {
				t.Fatalf("n=%d page=%d: %v", n, page, err)
			}
			sum += len(p.Items)
		}
		if sum != n {
			t.Errorf("n=%d: pages hold %d items", n, sum)
		}
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		move     Move
		want     int
		rejected bool
	}{
		{"first", 3, 3, First, 1, false},
		{"last", 1, 3, Last, 3, false},
		{"next", 2, 3, Next, 3, false},
		{"next past end", 3, 3, Next, 3, true},
		{"prev", 2, 3, Prev, 1, false},
		{"prev before start", 1, 3, Prev, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Navigate(tt.current, tt.total, tt.move)
			if tt.rejected != (err != nil) {
				t.Fatalf("err = %v, rejected = %v", err, tt.rejected)
			}
			if got != tt.want {
				t.Errorf("page = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPageForIndex(t *testing.T) {
	if p, err := PageForIndex(75, 120, PageSize); err != nil || p != 2 {
		t.Errorf("PageForIndex(75) = %d, %v", p, err)
	}
	if p, _ := PageForIndex(50, 120, PageSize); p != 1 {
		t.Errorf("PageForIndex(50) = %d", p)
	}
	for _, idx := range []int{0, 121} {
		_, err := PageForIndex(idx, 120, PageSize)
		var re *RangeError
		if !errors.As(err, &re) || re.Kind != "post" || re.Max != 120 {
			t.Errorf("PageForIndex(%d): expected post RangeError, got %v", idx, err)
		}
	}
}
