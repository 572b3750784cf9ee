package input

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/textray/terminal"
)

// Rune aliases for keys that can't be bare single-char TOML keys
var runeAliases = map[string]rune{
	"space":     ' ',
	"backslash": '\\',
}

// ParseKeyMap builds a sparse override table from config sections
// runes maps single characters (or aliases) to action names, special maps key names such as "up"
// Returns error on unknown action names or invalid key names
func ParseKeyMap(runes, special map[string]string) (*KeyTable, error) {
	kt := &KeyTable{}

	if len(runes) > 0 {
		kt.Runes = make(map[rune]Intent, len(runes))
		for keyStr, action := range runes {
			r, err := resolveRune(keyStr)
			if err != nil {
				return nil, fmt.Errorf("[keys.runes] key %q: %w", keyStr, err)
			}
			intent, err := resolveAction(action)
			if err != nil {
				return nil, fmt.Errorf("[keys.runes] key %q: %w", keyStr, err)
			}
			kt.Runes[r] = intent
		}
	}

	if len(special) > 0 {
		kt.SpecialKeys = make(map[terminal.Key]Intent, len(special))
		for keyStr, action := range special {
			k, ok := terminal.KeyByName(strings.ToLower(keyStr))
			if !ok {
				return nil, fmt.Errorf("[keys.special] unknown key name: %q", keyStr)
			}
			intent, err := resolveAction(action)
			if err != nil {
				return nil, fmt.Errorf("[keys.special] key %q: %w", keyStr, err)
			}
			kt.SpecialKeys[k] = intent
		}
	}

	return kt, nil
}

// resolveRune converts a TOML key string to a rune
// Accepts single characters and named aliases
func resolveRune(s string) (rune, error) {
	if r, ok := runeAliases[strings.ToLower(s)]; ok {
		return r, nil
	}

	runes := []rune(s)
	if len(runes) == 1 {
		return runes[0], nil
	}

	return 0, fmt.Errorf("invalid rune key: %q (expected single character or alias)", s)
}

// resolveAction converts an action name string to an intent
func resolveAction(name string) (Intent, error) {
	intent, ok := IntentByName(name)
	if !ok {
		return IntentNone, fmt.Errorf("unknown action: %q", name)
	}
	return intent, nil
}

// MergeKeyTable returns a new KeyTable with base values overridden by non-nil override maps
// Override entries bound to "none" delete the key from the result
func MergeKeyTable(base, override *KeyTable) *KeyTable {
	result := base.Clone()
	if override == nil {
		return result
	}
	mergeRuneMap(result.Runes, override.Runes)
	mergeKeyMap(result.SpecialKeys, override.SpecialKeys)
	return result
}

func mergeRuneMap(base, override map[rune]Intent) {
	for k, v := range override {
		if v == IntentNone {
			delete(base, k)
		} else {
			base[k] = v
		}
	}
}

func mergeKeyMap(base, override map[terminal.Key]Intent) {
	for k, v := range override {
		if v == IntentNone {
			delete(base, k)
		} else {
			base[k] = v
		}
	}
}
