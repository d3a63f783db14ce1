package emote

import (
	"fmt"
	"strings"
)

// Key identifies a reaction icon: either a unicode glyph or a guild custom
// emote. Custom emotes compare by ID, unicode glyphs by exact codepoint
// sequence — no presentation-variant folding, since sessions key on the
// exact configured icon.
type Key struct {
	Name string `json:"name"`         // unicode glyph, or custom emote name
	ID   string `json:"id,omitempty"` // custom emote ID; empty for unicode
}

// Unicode builds a Key for a plain unicode glyph.
func Unicode(glyph string) Key {
	return Key{Name: glyph}
}

// Custom builds a Key for a guild custom emote.
func Custom(name, id string) Key {
	return Key{Name: name, ID: id}
}

// IsCustom reports whether the key refers to a guild custom emote.
func (k Key) IsCustom() bool {
	return k.ID != ""
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Name == "" && k.ID == ""
}

// Equals compares two keys: by ID for custom emotes, by glyph for unicode.
func (k Key) Equals(other Key) bool {
	if k.IsCustom() || other.IsCustom() {
		return k.ID == other.ID && k.ID != ""
	}
	return k.Name == other.Name
}

// APIName returns the identifier used by the Discord reaction endpoints:
// "name:id" for custom emotes, the raw glyph otherwise.
func (k Key) APIName() string {
	if k.IsCustom() {
		return k.Name + ":" + k.ID
	}
	return k.Name
}

func (k Key) String() string {
	if k.IsCustom() {
		return fmt.Sprintf("<:%s:%s>", k.Name, k.ID)
	}
	return k.Name
}

// Control enumerates the engine's navigation icons.
type Control int

const (
	Previous Control = iota
	Next
	SkipBackward
	SkipForward
	GotoFirst
	GotoLast
	Cancel

	numControls
)

var controlNames = [numControls]string{
	Previous:     "previous",
	Next:         "next",
	SkipBackward: "skipBackward",
	SkipForward:  "skipForward",
	GotoFirst:    "gotoFirst",
	GotoLast:     "gotoLast",
	Cancel:       "cancel",
}

func (c Control) String() string {
	if c < 0 || c >= numControls {
		return fmt.Sprintf("control(%d)", int(c))
	}
	return controlNames[c]
}

// Set maps each control to its configured icon.
type Set struct {
	keys [numControls]Key
}

// DefaultSet returns the stock glyph assignment.
func DefaultSet() Set {
	var s Set
	s.keys[Previous] = Unicode("◀")
	s.keys[Next] = Unicode("▶")
	s.keys[SkipBackward] = Unicode("⏪")
	s.keys[SkipForward] = Unicode("⏩")
	s.keys[GotoFirst] = Unicode("⏮")
	s.keys[GotoLast] = Unicode("⏭")
	s.keys[Cancel] = Unicode("❎")
	return s
}

// Key returns the icon bound to a control.
func (s Set) Key(c Control) Key {
	if c < 0 || c >= numControls {
		return Key{}
	}
	return s.keys[c]
}

// Bind replaces the icon for one control.
func (s *Set) Bind(c Control, k Key) {
	if c >= 0 && c < numControls {
		s.keys[c] = k
	}
}

// Match resolves an incoming icon to a control, or ok=false when the icon
// is not one of the configured controls.
func (s Set) Match(k Key) (Control, bool) {
	for c := Control(0); c < numControls; c++ {
		if s.keys[c].Equals(k) {
			return c, true
		}
	}
	return 0, false
}

// ControlFromName maps a config field name to its control.
func ControlFromName(name string) (Control, bool) {
	for c := Control(0); c < numControls; c++ {
		if controlNames[c] == name {
			return c, true
		}
	}
	return 0, false
}

// isSnowflake reports whether s looks like a Discord snowflake ID.
func isSnowflake(s string) bool {
	if len(s) < 15 || len(s) > 22 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseSpec turns a config icon spec into a Key. Accepted forms: a raw
// unicode glyph, a custom emote ID ("123456789012345678"), or
// "name:123456789012345678".
func ParseSpec(spec string) (Key, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Key{}, fmt.Errorf("empty emote spec")
	}
	if name, id, ok := strings.Cut(spec, ":"); ok {
		if !isSnowflake(id) {
			return Key{}, fmt.Errorf("emote spec %q: %q is not an emote ID", spec, id)
		}
		return Custom(name, id), nil
	}
	if isSnowflake(spec) {
		return Custom("", spec), nil
	}
	return Unicode(spec), nil
}
