// Package audiodev enumerates and labels available audio input devices,
// returning a stable, filtered, human-friendly list (spec component A).
package audiodev

import (
	"log"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device describes one enumerated input device.
type Device struct {
	ID          string
	DisplayName string
}

// excludedSubstrings marks raw hardware nodes, mix/snoop virtual nodes,
// multi-channel surround nodes, digital passthrough, and null sinks — none
// of which perform format negotiation on behalf of the caller.
var excludedSubstrings = []string{
	"surround", "iec958", "dsnoop", "dmix", "null",
}

// Enumerate queries the host's audio devices and returns the filtered,
// sorted, deduplicated input device list. The first entry is always the
// synthetic "default" identifier.
func Enumerate() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		log.Printf("[audiodev] enumerate: %v", err)
		return nil, err
	}

	out := []Device{{ID: "default", DisplayName: "Default"}}
	seen := map[string]bool{"default": true}

	var rest []Device
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		id := d.Name
		if !accepted(id) {
			continue
		}
		name := displayName(id)
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		rest = append(rest, Device{ID: id, DisplayName: name})
	}

	sort.Slice(rest, func(i, j int) bool {
		return strings.ToLower(rest[i].DisplayName) < strings.ToLower(rest[j].DisplayName)
	})

	return append(out, rest...), nil
}

// accepted reports whether id names an abstraction-layer node (one that
// performs format negotiation on the caller's behalf) rather than a raw
// hardware node or excluded virtual node.
func accepted(id string) bool {
	lower := strings.ToLower(id)
	if lower == "default" {
		return false // already represented by the synthetic entry
	}
	for _, bad := range excludedSubstrings {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	// Raw hardware nodes ("hw:CARD=...") require the caller to negotiate
	// format itself; only abstraction-layer prefixes are retained.
	if strings.HasPrefix(lower, "hw:") {
		return false
	}
	if strings.HasPrefix(lower, "plughw:") || strings.HasPrefix(lower, "pulse") {
		return true
	}
	return false
}

// displayName derives a human-friendly label from a raw device id,
// extracting the card identifier when present and suffixing it with the
// abstraction class.
func displayName(id string) string {
	lower := strings.ToLower(id)
	card := extractCard(id)

	switch {
	case strings.HasPrefix(lower, "plughw:"):
		if card != "" {
			return card + " (ALSA)"
		}
		return id + " (ALSA)"
	case strings.HasPrefix(lower, "pulse"):
		if card != "" {
			return card + " (PulseAudio)"
		}
		return "PulseAudio"
	default:
		return id
	}
}

// ExtractCard pulls the CARD=<name> component out of an ALSA-style device
// id, e.g. "plughw:CARD=PCH,DEV=0" -> "PCH". Exported so the capture driver
// can reuse it for fuzzy card-name fallback resolution.
func ExtractCard(id string) string {
	return extractCard(id)
}

func extractCard(id string) string {
	idx := strings.Index(id, "CARD=")
	if idx < 0 {
		return ""
	}
	rest := id[idx+len("CARD="):]
	if comma := strings.IndexByte(rest, ','); comma >= 0 {
		rest = rest[:comma]
	}
	return rest
}
