package core

import "fmt"

// ResolveHeaders makes column names unique. The first occurrence of a name is
// kept as is; later ones get a "_1", "_2", ... suffix counted per name.
func ResolveHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		n, ok := seen[h]
		if !ok {
			seen[h] = 0
			out = append(out, h)
			continue
		}
		n++
		seen[h] = n
		out = append(out, fmt.Sprintf("%s_%d", h, n))
	}
	return out
}
