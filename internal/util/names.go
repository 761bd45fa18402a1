package util

import "strings"

// ShortVMName extracts the display name from a vSphere inventory path.
// Inventory paths have the format: /Datacenter/vm/folder/vm-name
// A plain VM name is returned unchanged.
func ShortVMName(name string) string {
	trimmed := strings.TrimSuffix(name, "/")
	if !strings.Contains(trimmed, "/") {
		return trimmed
	}

	if idx := strings.LastIndex(trimmed, "/"); idx != -1 {
		return trimmed[idx+1:]
	}

	return trimmed
}
