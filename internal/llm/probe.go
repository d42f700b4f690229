package llm

import (
	"slices"
	"strings"
)

// SelectModel picks a model from a provider listing:
// models lacking the capability are skipped, as are experimental, preview
// and "-latest" aliases. The "models/" prefix is stripped. The first
// preferred name present wins, otherwise the first remaining model.
func SelectModel(models []ModelInfo, opts ProbeOptions) (string, bool) {
	available := make([]string, 0, len(models))
	for _, m := range models {
		if opts.Capability != "" && !slices.Contains(m.Capabilities, opts.Capability) {
			continue
		}
		base := strings.TrimPrefix(m.Name, "models/")
		if base == "" || unstableModel(base) {
			continue
		}
		available = append(available, base)
	}
	for _, name := range opts.Preferred {
		if slices.Contains(available, name) {
			return name, true
		}
	}
	if len(available) > 0 {
		return available[0], true
	}
	return "", false
}

func unstableModel(name string) bool {
	return strings.Contains(name, "-exp") ||
		strings.Contains(name, "-preview") ||
		strings.HasSuffix(name, "-latest")
}
