package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data", "data"},
		{"My_Volume", "my-volume"},
		{"./config/app.settings", "config-app-settings"},
		{"--weird--", "weird"},
		{"a//b\\c", "a-b-c"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeName(got), "normalisation must be idempotent")
		})
	}
}

func TestNormalizeName_Truncates(t *testing.T) {
	long := "volume-" + "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	got := NormalizeName(long)
	assert.LessOrEqual(t, len(got), 63)
	assert.Equal(t, got, NormalizeName(got))
}

func TestNamedBindMounts(t *testing.T) {
	mounts := []BindMount{
		{Source: "./data", Target: "/a"},
		{Source: "data", Target: "/b"},
		{Name: "Logs", Source: "/var/log", Target: "/logs"},
		{Source: ".", Target: "/c"},
		{Source: "/data/", Target: "/d"},
	}

	got := NamedBindMounts(mounts)

	names := namesOf(got)
	assert.Equal(t, []string{"data", "data-2", "logs", "bind-mount", "data-3"}, names)
	assert.Empty(t, mounts[0].Name, "input must not be modified")
	assert.Equal(t, names, namesOf(NamedBindMounts(mounts)), "naming must be deterministic")
}

func TestNormalizedVolumes(t *testing.T) {
	vols := NormalizedVolumes([]Volume{{Name: "PG_Data", Target: "/var/lib/postgresql/data", ReadOnly: boolPtr(false)}})
	assert.Equal(t, "pg-data", vols[0].Name)
	assert.False(t, vols[0].IsReadOnly())
	assert.False(t, Volume{}.IsReadOnly())
	assert.True(t, BindMount{ReadOnly: boolPtr(true)}.IsReadOnly())
}

func namesOf(mounts []BindMount) []string {
	out := make([]string, len(mounts))
	for i, m := range mounts {
		out[i] = m.Name
	}
	return out
}
