// Package featureflags evaluates rollout flags from a FEATURE_FLAGS string.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags consulted by the application.
const (
	// PushNotifications gates device push during notification fanout.
	PushNotifications = "push_notifications"
	// FeedDedupSelfReposts collapses an author's repost of their own post
	// into the authored entry within a feed page.
	FeedDedupSelfReposts = "feed_dedup_self_reposts"
)

// Known lists the flags the application reads, reported even when unset.
var Known = []string{PushNotifications, FeedDedupSelfReposts}

// Checker is the read side of Manager.
type Checker interface {
	Enabled(name string, userID uint) bool
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "push_notifications=on,feed_dedup_self_reposts=25%"
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated key=value list. Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every configured and known flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags)+len(Known))
	for _, name := range m.Names() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Names returns configured and known flag names, sorted.
func (m *Manager) Names() []string {
	seen := make(map[string]struct{}, len(m.flags)+len(Known))
	for _, name := range Known {
		seen[name] = struct{}{}
	}
	for name := range m.flags {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
