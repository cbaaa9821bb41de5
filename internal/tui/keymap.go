package tui

// GlobalKeyBindings lists the keys handled by the root model itself.
var GlobalKeyBindings = []string{"q", "ctrl+c", "j", "k", "down", "up", "tab", "shift+tab", "x", "f"}

// logKeys are the scroll keys the event log viewport understands.
var logKeys = []string{"ctrl+u", "ctrl+d", "pgup", "pgdown"}

// IsGlobalKey reports whether key is handled by the root model.
func IsGlobalKey(key string) bool {
	return contains(GlobalKeyBindings, key)
}

// IsLogKey reports whether key scrolls the event log.
func IsLogKey(key string) bool {
	return contains(logKeys, key)
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
