package channel

import "strings"

// Wildcard is the distinguished name matching any channel or target. The
// registry key "*" holds global handlers delivered on every resolution.
const Wildcard = "*"

// Parse splits a channel-resolution string into its target and channel
// parts. The substring before the first ":" is the target; a string with
// no ":" is a bare channel with no target.
func Parse(s string) (target, name string) {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// Join produces the registry key for a channel scoped to a target. With
// an empty target the key is the bare channel name.
func Join(target, name string) string {
	if target == "" {
		return name
	}
	return target + ":" + name
}

// Targeted reports whether the registry key carries a target prefix.
func Targeted(key string) bool {
	return strings.Contains(key, ":")
}

// OnChannel reports whether the registry key subscribes to the given
// channel name under any target: either the key is the bare name or it
// ends with ":"+name.
func OnChannel(key, name string) bool {
	return key == name || strings.HasSuffix(key, ":"+name)
}

// OnTarget reports whether the registry key is scoped to the given
// target.
func OnTarget(key, target string) bool {
	return strings.HasPrefix(key, target+":")
}
