// Package action maps configured key names onto selection session actions.
package action

import (
	"fmt"
	"strings"

	"github.com/soocke/hdr-snip/domain/selection"
)

// Binding is one key expressed for both input sources: a Windows virtual-key
// code and a Tk keysym.
type Binding struct {
	Name   string
	VK     uint16
	Keysym string
}

var named = map[string]Binding{
	"ESCAPE":    {Name: "Escape", VK: 0x1B, Keysym: "Escape"},
	"ESC":       {Name: "Escape", VK: 0x1B, Keysym: "Escape"},
	"RETURN":    {Name: "Return", VK: 0x0D, Keysym: "Return"},
	"ENTER":     {Name: "Return", VK: 0x0D, Keysym: "Return"},
	"SPACE":     {Name: "Space", VK: 0x20, Keysym: "space"},
	"TAB":       {Name: "Tab", VK: 0x09, Keysym: "Tab"},
	"BACKSPACE": {Name: "BackSpace", VK: 0x08, Keysym: "BackSpace"},
	"DELETE":    {Name: "Delete", VK: 0x2E, Keysym: "Delete"},
}

// ParseKey converts a key token (e.g. "Escape", "F3", "Q") into a Binding.
// Recognizes the named keys above, F1..F12, single letters and digits.
func ParseKey(key string) (Binding, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if b, ok := named[k]; ok {
		return b, nil
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'F' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				n = -1
				break
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return Binding{Name: k, VK: uint16(0x70 + n - 1), Keysym: k}, nil // VK_F1=0x70
		}
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'A' && c <= 'Z':
			// VK codes match upper case; Tk reports the lower case keysym.
			return Binding{Name: k, VK: uint16(c), Keysym: strings.ToLower(k)}, nil
		case c >= '0' && c <= '9':
			return Binding{Name: k, VK: uint16(c), Keysym: k}, nil
		}
	}
	return Binding{}, fmt.Errorf("action: unknown key %q", key)
}

// Keymap resolves raw key input to session keys.
type Keymap struct {
	accept []Binding
	cancel []Binding
}

// NewKeymap parses the accept and cancel key lists.
func NewKeymap(accept, cancel []string) (*Keymap, error) {
	km := &Keymap{}
	for _, name := range accept {
		b, err := ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("accept keys: %w", err)
		}
		km.accept = append(km.accept, b)
	}
	for _, name := range cancel {
		b, err := ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("cancel keys: %w", err)
		}
		km.cancel = append(km.cancel, b)
	}
	return km, nil
}

// DefaultKeymap accepts with Return and cancels with Escape.
func DefaultKeymap() *Keymap {
	km, _ := NewKeymap([]string{"Return"}, []string{"Escape"})
	return km
}

// FromVK resolves a Windows virtual-key code. Cancel wins when a key is
// bound to both.
func (k *Keymap) FromVK(vk uint16) selection.Key {
	if k == nil {
		return selection.KeyNone
	}
	for _, b := range k.cancel {
		if b.VK == vk {
			return selection.KeyCancel
		}
	}
	for _, b := range k.accept {
		if b.VK == vk {
			return selection.KeyAccept
		}
	}
	return selection.KeyNone
}

// FromKeysym resolves a Tk keysym.
func (k *Keymap) FromKeysym(sym string) selection.Key {
	if k == nil || sym == "" {
		return selection.KeyNone
	}
	for _, b := range k.cancel {
		if strings.EqualFold(b.Keysym, sym) {
			return selection.KeyCancel
		}
	}
	for _, b := range k.accept {
		if strings.EqualFold(b.Keysym, sym) {
			return selection.KeyAccept
		}
	}
	return selection.KeyNone
}
