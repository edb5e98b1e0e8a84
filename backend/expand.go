package backend

import (
	"context"
	"strings"

	"github.com/jonwraymond/cachefu/secret"
)

// resolveServers resolves each entry and splits comma-separated results, so
// one variable or secret can carry a whole server list.
func resolveServers(ctx context.Context, r *secret.Resolver, entries []string) ([]string, error) {
	resolved, err := r.ResolveSlice(ctx, entries)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range resolved {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out, nil
}
