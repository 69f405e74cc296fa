package memvol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitPathDropsEmptyAndDotComponents(t *testing.T) {
	cases := []struct {
		name string
		path string
		want []string
	}{
		{"simple", "a/b/c", []string{"a", "b", "c"}},
		{"leading slash", "/a/b", []string{"a", "b"}},
		{"trailing slash", "a/b/", []string{"a", "b"}},
		{"double slash", "a//b", []string{"a", "b"}},
		{"dot component", "a/./b", []string{"a", "b"}},
		{"empty", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, splitPath(tc.path))
		})
	}
}

func TestResolveComponentsHandlesDotDot(t *testing.T) {
	cases := []struct {
		name         string
		components   []string
		wantResolved []string
		wantEscaped  bool
	}{
		{"no dotdot", []string{"a", "b"}, []string{"a", "b"}, false},
		{"dotdot within bounds", []string{"a", "b", ".."}, []string{"a"}, false},
		{"dotdot to root", []string{"a", ".."}, []string{}, false},
		{"dotdot escapes root", []string{".."}, nil, true},
		{"dotdot escapes after returning to root", []string{"a", "..", ".."}, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, escaped := resolveComponents(tc.components)
			require.Equal(t, tc.wantEscaped, escaped)
			if !escaped {
				require.Equal(t, tc.wantResolved, resolved)
			}
		})
	}
}
