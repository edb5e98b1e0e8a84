// Package backend builds a cache.Store from declarative configuration.
//
// Server lists, URLs, passwords and namespaces may reference environment
// variables as ${VAR} and mounted secrets as secretref:file:<name> (see
// package secret). A referenced variable that is not set is an error rather
// than an empty string.
//
//	b, err := backend.Open(ctx, backend.Config{
//	    Kind:      backend.KindRedis,
//	    Servers:   []string{"${REDIS_ADDR}"},
//	    Password:  "secretref:file:redis-password",
//	    Namespace: "app",
//	})
//	cfg := cache.Config{Scope: "Story"}
//	b.Configure(&cfg)
//	client, err := cache.New[*Story](cfg, b.Store(), source)
package backend
