package action

import (
	"testing"

	"github.com/soocke/hdr-snip/domain/selection"
)

func TestParseKey(t *testing.T) {
	cases := []struct {
		in     string
		vk     uint16
		keysym string
	}{
		{"Escape", 0x1B, "Escape"},
		{" esc ", 0x1B, "Escape"},
		{"enter", 0x0D, "Return"},
		{"F1", 0x70, "F1"},
		{"f12", 0x7B, "F12"},
		{"q", 'Q', "q"},
		{"7", '7', "7"},
	}
	for _, c := range cases {
		b, err := ParseKey(c.in)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", c.in, err)
		}
		if b.VK != c.vk || b.Keysym != c.keysym {
			t.Fatalf("ParseKey(%q)=%+v want vk=%#x keysym=%s", c.in, b, c.vk, c.keysym)
		}
	}
	for _, bad := range []string{"", "F13", "F0", "Fx", "Hyper"} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestKeymap_Resolve(t *testing.T) {
	km := DefaultKeymap()
	if km.FromVK(0x0D) != selection.KeyAccept || km.FromVK(0x1B) != selection.KeyCancel || km.FromVK('A') != selection.KeyNone {
		t.Fatalf("default vk mapping wrong")
	}
	if km.FromKeysym("Return") != selection.KeyAccept || km.FromKeysym("escape") != selection.KeyCancel || km.FromKeysym("a") != selection.KeyNone {
		t.Fatalf("default keysym mapping wrong")
	}
	var nilMap *Keymap
	if nilMap.FromVK(0x0D) != selection.KeyNone || nilMap.FromKeysym("Return") != selection.KeyNone {
		t.Fatalf("nil keymap must resolve to none")
	}
}

func TestKeymap_CancelWinsAndErrors(t *testing.T) {
	km, err := NewKeymap([]string{"Space", "Q"}, []string{"Q"})
	if err != nil {
		t.Fatalf("keymap: %v", err)
	}
	if km.FromVK('Q') != selection.KeyCancel || km.FromKeysym("q") != selection.KeyCancel {
		t.Fatalf("cancel should win for shared key")
	}
	if km.FromKeysym("space") != selection.KeyAccept {
		t.Fatalf("space should accept")
	}
	if _, err := NewKeymap([]string{"nope"}, nil); err == nil {
		t.Fatalf("expected accept error")
	}
	if _, err := NewKeymap(nil, []string{"nope"}); err == nil {
		t.Fatalf("expected cancel error")
	}
}
