package xlformula

import "testing"

func TestParseARef(t *testing.T) {
	cases := []struct {
		text   string
		col    uint32
		row    uint32
		anchor Anchor
	}{
		{"A1", 0, 0, AnchorRelative},
		{"B3", 1, 2, AnchorRelative},
		{"Z10", 25, 9, AnchorRelative},
		{"AA1", 26, 0, AnchorRelative},
		{"AZ1", 51, 0, AnchorRelative},
		{"$A$1", 0, 0, AnchorAbsolute},
		{"$A1", 0, 0, AnchorColAbsolute},
		{"A$1", 0, 0, AnchorRowAbsolute},
		{"a1", 0, 0, AnchorRelative},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			addr, anchor, err := ParseARef(c.text)
			if err != nil {
				t.Fatalf("ParseARef(%q): %v", c.text, err)
			}
			if addr.Col != c.col || addr.Row != c.row {
				t.Errorf("ParseARef(%q) = %v, want col=%d row=%d", c.text, addr, c.col, c.row)
			}
			if anchor != c.anchor {
				t.Errorf("ParseARef(%q) anchor = %v, want %v", c.text, anchor, c.anchor)
			}
		})
	}
}

func TestParseARefInvalid(t *testing.T) {
	for _, text := range []string{"", "1A", "A0", "A", "1", "A1B", "$$A1"} {
		if _, _, err := ParseARef(text); err == nil {
			t.Errorf("ParseARef(%q) unexpectedly succeeded", text)
		}
	}
}

func TestAddressStringRoundTrip(t *testing.T) {
	for _, text := range []string{"A1", "Z99", "AA1", "AZ10", "BA100"} {
		addr, _, err := ParseARef(text)
		if err != nil {
			t.Fatalf("ParseARef(%q): %v", text, err)
		}
		if addr.String() != text {
			t.Errorf("ParseARef(%q).String() = %q", text, addr.String())
		}
	}
}

func TestCellRangeNormalizesAndEnumerates(t *testing.T) {
	// Corners given out of order still normalize.
	r := NewCellRange(ARef{Col: 2, Row: 3}, ARef{Col: 0, Row: 1})
	if r.StartCol != 0 || r.StartRow != 1 || r.EndCol != 2 || r.EndRow != 3 {
		t.Fatalf("NewCellRange did not normalize: %+v", r)
	}
	if r.Width() != 3 || r.Height() != 3 {
		t.Errorf("range %v: width=%d height=%d, want 3x3", r, r.Width(), r.Height())
	}

	cells := r.Cells()
	if len(cells) != 9 {
		t.Fatalf("Cells() returned %d addresses, want 9", len(cells))
	}
	// Row-major: the first row's cells come before any of the second row's.
	if cells[0] != (ARef{Col: 0, Row: 1}) || cells[2] != (ARef{Col: 2, Row: 1}) || cells[3] != (ARef{Col: 0, Row: 2}) {
		t.Errorf("Cells() not row-major: %v", cells)
	}
}

func TestQuoteSheetIfNeeded(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Sheet1", "Sheet1"},
		{"My Sheet", "'My Sheet'"},
		{"O'Brien", "'O''Brien'"},
		{"", "''"},
	}
	for _, c := range cases {
		if got := quoteSheetIfNeeded(c.name); got != c.want {
			t.Errorf("quoteSheetIfNeeded(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
