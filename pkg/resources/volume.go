package resources

import (
	"strconv"
	"strings"
)

const maxNameLength = 63

// Volume is a named volume mounted into a container.
type Volume struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	ReadOnly *bool  `json:"readOnly"`
}

// BindMount mounts a host path into a container.
type BindMount struct {
	Name     string `json:"name,omitempty"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly *bool  `json:"readOnly"`
}

// IsReadOnly reports the read-only flag, treating a missing flag as false.
func (v Volume) IsReadOnly() bool { return v.ReadOnly != nil && *v.ReadOnly }

// IsReadOnly reports the read-only flag, treating a missing flag as false.
func (m BindMount) IsReadOnly() bool { return m.ReadOnly != nil && *m.ReadOnly }

// NormalizeName turns an arbitrary string into a DNS-1123 label: lower case,
// separators and other invalid characters collapsed to single dashes, no
// leading or trailing dash, at most 63 characters. Applying it twice is a no-op.
func NormalizeName(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxNameLength {
		out = strings.TrimRight(out[:maxNameLength], "-")
	}
	return out
}

// DeriveBindMountName builds a volume name from a bind mount source path.
func DeriveBindMountName(source string) string {
	name := NormalizeName(strings.TrimPrefix(source, "."))
	if name == "" {
		return "bind-mount"
	}
	return name
}

// NormalizedVolumes returns the volumes with DNS-safe names.
func NormalizedVolumes(volumes []Volume) []Volume {
	out := make([]Volume, len(volumes))
	for i, v := range volumes {
		v.Name = NormalizeName(v.Name)
		out[i] = v
	}
	return out
}

// NamedBindMounts returns the bind mounts with every name filled in and unique.
// Missing names are derived from the source path; clashes get a numeric suffix
// (data, data-2, data-3 ...). The result is deterministic for a given input order.
func NamedBindMounts(mounts []BindMount) []BindMount {
	out := make([]BindMount, len(mounts))
	used := make(map[string]struct{}, len(mounts))
	for i, m := range mounts {
		base := NormalizeName(m.Name)
		if base == "" {
			base = DeriveBindMountName(m.Source)
		}
		name := base
		for n := 2; ; n++ {
			if _, taken := used[name]; !taken {
				break
			}
			suffix := "-" + strconv.Itoa(n)
			trimmed := base
			if len(trimmed)+len(suffix) > maxNameLength {
				trimmed = strings.TrimRight(trimmed[:maxNameLength-len(suffix)], "-")
			}
			name = trimmed + suffix
		}
		used[name] = struct{}{}
		m.Name = name
		out[i] = m
	}
	return out
}
