package templates

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidShortcut  = errors.New("templates: invalid shortcut")
	ErrReservedShortcut = errors.New("templates: shortcut is reserved by the system")
)

var modifierAliases = map[string]string{
	"ctrl":    "Ctrl",
	"control": "Ctrl",
	"alt":     "Alt",
	"option":  "Alt",
	"opt":     "Alt",
	"shift":   "Shift",
	"meta":    "Meta",
	"cmd":     "Meta",
	"command": "Meta",
	"super":   "Meta",
	"win":     "Meta",
}

var modifierRank = map[string]int{"Ctrl": 0, "Alt": 1, "Shift": 2, "Meta": 3}

var namedKeys = map[string]string{
	"enter": "Enter", "return": "Enter",
	"space": "Space", "tab": "Tab",
	"esc": "Escape", "escape": "Escape",
	"delete": "Delete", "del": "Delete",
	"backspace": "Backspace", "insert": "Insert",
	"home": "Home", "end": "End",
	"pageup": "PageUp", "pagedown": "PageDown",
	"up": "ArrowUp", "arrowup": "ArrowUp",
	"down": "ArrowDown", "arrowdown": "ArrowDown",
	"left": "ArrowLeft", "arrowleft": "ArrowLeft",
	"right": "ArrowRight", "arrowright": "ArrowRight",
}

// reserved lists combinations the browser or OS already owns.
var reserved = map[string]bool{
	"Ctrl+A": true, "Ctrl+C": true, "Ctrl+V": true, "Ctrl+X": true,
	"Ctrl+Z": true, "Ctrl+Y": true, "Ctrl+S": true, "Ctrl+F": true,
	"Ctrl+P": true, "Ctrl+T": true, "Ctrl+W": true, "Ctrl+N": true,
	"Ctrl+R": true, "Ctrl+L": true, "Ctrl+Tab": true,
	"Ctrl+Shift+T": true, "Ctrl+Shift+N": true, "Ctrl+Shift+I": true,
	"Ctrl+Shift+J": true, "Ctrl+Shift+Delete": true, "Ctrl+Shift+Tab": true,
	"Ctrl+Alt+Delete": true, "Alt+F4": true, "Alt+Tab": true,
	"Meta+A": true, "Meta+C": true, "Meta+V": true, "Meta+X": true,
	"Meta+Z": true, "Meta+Q": true, "Meta+W": true, "Meta+T": true,
	"Meta+N": true, "Meta+Tab": true, "Meta+Space": true,
}

// NormalizeShortcut canonicalizes a modifier+key combination such as
// "shift + ctrl + k" into "Ctrl+Shift+K". An empty input is valid and means
// no shortcut.
func NormalizeShortcut(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}

	var (
		mods []string
		key  string
		seen = make(map[string]bool)
	)
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", fmt.Errorf("%w: %q has an empty segment", ErrInvalidShortcut, s)
		}
		lower := strings.ToLower(part)
		if mod, ok := modifierAliases[lower]; ok {
			if !seen[mod] {
				seen[mod] = true
				mods = append(mods, mod)
			}
			continue
		}
		if key != "" {
			return "", fmt.Errorf("%w: %q has more than one key", ErrInvalidShortcut, s)
		}
		k, err := normalizeKey(lower)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidShortcut, s, err)
		}
		key = k
	}
	if len(mods) == 0 {
		return "", fmt.Errorf("%w: %q needs at least one modifier", ErrInvalidShortcut, s)
	}
	if key == "" {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidShortcut, s)
	}

	ordered := make([]string, 4)
	for _, m := range mods {
		ordered[modifierRank[m]] = m
	}
	parts := make([]string, 0, len(mods)+1)
	for _, m := range ordered {
		if m != "" {
			parts = append(parts, m)
		}
	}
	parts = append(parts, key)
	return strings.Join(parts, "+"), nil
}

func normalizeKey(lower string) (string, error) {
	if len(lower) == 1 {
		c := lower[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return strings.ToUpper(lower), nil
		}
		return lower, nil
	}
	if named, ok := namedKeys[lower]; ok {
		return named, nil
	}
	if lower[0] == 'f' {
		switch lower[1:] {
		case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12":
			return "F" + lower[1:], nil
		}
	}
	return "", fmt.Errorf("unknown key %q", lower)
}

// IsReserved reports whether a normalized shortcut belongs to the system.
func IsReserved(shortcut string) bool {
	return reserved[shortcut]
}

// ValidateShortcut normalizes s and rejects reserved combinations.
func ValidateShortcut(s string) (string, error) {
	norm, err := NormalizeShortcut(s)
	if err != nil {
		return "", err
	}
	if norm != "" && IsReserved(norm) {
		return "", fmt.Errorf("%w: %s", ErrReservedShortcut, norm)
	}
	return norm, nil
}
