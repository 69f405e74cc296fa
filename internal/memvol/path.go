package memvol

import "strings"

// splitPath breaks a slash-separated path into non-empty components,
// dropping "." components. ".." components are kept as they are;
// resolveComponents normalizes them.
func splitPath(p string) (components []string) {
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		components = append(components, part)
	}
	return components
}

// resolveComponents normalizes "." (already dropped by splitPath) and
// ".." against a running stack, returning escaped=true the moment a ".."
// would pop past the root.
func resolveComponents(components []string) (resolved []string, escaped bool) {
	for _, c := range components {
		if c == ".." {
			if len(resolved) == 0 {
				return nil, true
			}
			resolved = resolved[:len(resolved)-1]
			continue
		}
		resolved = append(resolved, c)
	}
	return resolved, false
}
