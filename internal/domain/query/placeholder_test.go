package query

import "testing"

func TestStripPlaceholder(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gift", "gift"},
		{"gift {}", "gift"},
		{"buy _ online", "buy online"},
		{"  a   b  ", "a b"},
		{"{} _ x", "x"},
	}
	for _, tc := range tests {
		if got := StripPlaceholder(tc.in); got != tc.want {
			t.Errorf("StripPlaceholder(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHasPlaceholder(t *testing.T) {
	if HasPlaceholder("gift card") {
		t.Error("no marker expected")
	}
	if !HasPlaceholder("gift {}") || !HasPlaceholder("gift_card") {
		t.Error("marker expected")
	}
}

func TestItem_Cursor(t *testing.T) {
	if _, ok := NewItem("a", TagSeed).Cursor(); ok {
		t.Error("plain item must not carry a cursor")
	}
	cur, ok := NewItemWithCursor("a b c", TagPersianGap, 3).Cursor()
	if !ok || cur != 3 {
		t.Errorf("cursor = %d, %v", cur, ok)
	}
}
