package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextDisplayID(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
		ok   bool
	}{
		{name: "empty store starts at one", last: "", want: "TKT-00001", ok: true},
		{name: "increments the suffix", last: "TKT-00041", want: "TKT-00042", ok: true},
		{name: "grows past the padding width", last: "TKT-99999", want: "TKT-100000", ok: true},
		{name: "wide suffix keeps counting", last: "TKT-100000", want: "TKT-100001", ok: true},
		{name: "missing prefix restarts", last: "41", want: "TKT-00001", ok: false},
		{name: "non-numeric suffix restarts", last: "TKT-abc", want: "TKT-00001", ok: false},
		{name: "zero suffix restarts", last: "TKT-00000", want: "TKT-00001", ok: false},
		{name: "negative suffix restarts", last: "TKT--3", want: "TKT-00001", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextDisplayID(tt.last)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.ok, ok)
		})
	}
}

func TestNextDisplayIDIsMonotonic(t *testing.T) {
	id := ""
	prev := ""
	for i := 0; i < 200; i++ {
		next, _ := NextDisplayID(id)
		if prev != "" {
			require.Greater(t, next, prev)
		}
		prev = next
		id = next
	}
	require.Equal(t, "TKT-00200", id)
}
