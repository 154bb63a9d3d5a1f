package telegram

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseRefNumeric(t *testing.T) {
	t.Parallel()

	cases := map[string]int64{
		"42":             42,
		"-42":            -42,
		"-1001234567890": -1001234567890,
		" 7 ":            7,
		"0":              0,
	}
	for raw, want := range cases {
		ref, err := ParseRef(raw)
		if err != nil {
			t.Fatalf("ParseRef(%q) error: %v", raw, err)
		}
		if !ref.Numeric {
			t.Fatalf("ParseRef(%q).Numeric = false, want true", raw)
		}
		if ref.ID != want {
			t.Fatalf("ParseRef(%q).ID = %d, want %d", raw, ref.ID, want)
		}
	}
}

func TestParseRefHandle(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"durov", "@durov", "--5", "-", "12a", "+123456", "1-2", "t.me/durov"} {
		ref, err := ParseRef(raw)
		if err != nil {
			t.Fatalf("ParseRef(%q) error: %v", raw, err)
		}
		if ref.Numeric {
			t.Fatalf("ParseRef(%q).Numeric = true, want handle", raw)
		}
		if ref.Handle != raw {
			t.Fatalf("ParseRef(%q).Handle = %q", raw, ref.Handle)
		}
	}
}

func TestParseRefNumericProperty(t *testing.T) {
	t.Parallel()

	for i := int64(-2000); i <= 2000; i += 37 {
		raw := fmt.Sprintf("%d", i)
		ref, err := ParseRef(raw)
		if err != nil || !ref.Numeric || ref.ID != i {
			t.Fatalf("ParseRef(%q) = %+v, %v", raw, ref, err)
		}
		handle, err := ParseRef(raw + "x")
		if err != nil || handle.Numeric {
			t.Fatalf("ParseRef(%q) = %+v, %v, want handle", raw+"x", handle, err)
		}
	}
}

func TestParseRefRejectsEmptyAndOverflow(t *testing.T) {
	t.Parallel()

	if _, err := ParseRef("  "); KindOf(err) != KindInvalid {
		t.Fatalf("ParseRef empty kind = %q, want %q", KindOf(err), KindInvalid)
	}
	if _, err := ParseRef("99999999999999999999"); KindOf(err) != KindInvalid {
		t.Fatalf("ParseRef overflow kind = %q, want %q", KindOf(err), KindInvalid)
	}
}

func TestUnmarkID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		marked int64
		kind   EntityKind
		id     int64
	}{
		{marked: 777, kind: KindUser, id: 777},
		{marked: -123, kind: KindGroup, id: 123},
		{marked: -1001234567890, kind: KindChannel, id: 1234567890},
	}
	for _, tc := range cases {
		kind, id := UnmarkID(tc.marked)
		if kind != tc.kind || id != tc.id {
			t.Fatalf("UnmarkID(%d) = %s/%d, want %s/%d", tc.marked, kind, id, tc.kind, tc.id)
		}
		if got := MarkID(kind, id); got != tc.marked {
			t.Fatalf("MarkID(%s, %d) = %d, want %d", kind, id, got, tc.marked)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	base := errors.New("peer id invalid")
	wrapped := fmt.Errorf("resolve: %w", NewError(KindNotFound, "resolve", base))

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf = %q, want %q", got, KindNotFound)
	}
	if got := KindOf(base); got != KindUnknown {
		t.Fatalf("KindOf plain = %q, want %q", got, KindUnknown)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf nil = %q, want empty", got)
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("expected wrapped error to unwrap to base")
	}
	if wrapped.Error() != "resolve: peer id invalid" {
		t.Fatalf("message = %q", wrapped.Error())
	}
}

func TestMediaLabel(t *testing.T) {
	t.Parallel()

	if got := (Media{Kind: MediaPhoto}).Label(); got != "MessageMediaPhoto" {
		t.Fatalf("photo label = %q", got)
	}
	if got := (Media{Kind: MediaOther, Tag: "messageMediaPaidMedia"}).Label(); got != "MessageMediaPaidMedia" {
		t.Fatalf("other label = %q", got)
	}
	if (Media{}).Present() {
		t.Fatal("zero media must not be present")
	}
}
