package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

const refPrefix = "secretref:"

// Resolver resolves environment references and secret references using
// registered providers.
type Resolver struct {
	strict bool

	mu        sync.RWMutex
	providers map[string]Provider
}

// NewResolver creates a resolver. A strict resolver rejects empty secrets.
// Every provider is registered; unnamed or duplicate providers are reported
// together.
func NewResolver(strict bool, providers ...Provider) (*Resolver, error) {
	r := &Resolver{strict: strict, providers: make(map[string]Provider)}
	var errs []error
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultResolver returns a strict resolver with the env provider and a file
// provider reading DefaultSecretsDir.
func DefaultResolver() *Resolver {
	env, file := EnvProvider{}, FileProvider{}
	return &Resolver{
		strict: true,
		providers: map[string]Provider{
			env.Name():  env,
			file.Name(): file,
		},
	}
}

// Register adds a provider.
func (r *Resolver) Register(p Provider) error {
	if p == nil || strings.TrimSpace(p.Name()) == "" {
		return fmt.Errorf("%w: provider without name", ErrInvalidRef)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Providers returns registered provider names in sorted order.
func (r *Resolver) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveValue expands environment references in value, then replaces
// secret references, whether they make up the whole value or appear inline.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnv(value)
	if err != nil {
		return "", err
	}
	if provider, ref, ok := ParseRef(expanded); ok {
		return r.resolve(ctx, provider, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ResolveSlice resolves each value in values.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// ParseRef parses a full secret reference of the form
//
//	secretref:<provider>:<ref>
//
// where ref holds no whitespace.
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" || strings.ContainsAny(ref, " \t\r\n") {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolve(ctx context.Context, name, ref string) (string, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && v == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrEmpty, name, ref)
	}
	return v, nil
}

// inlineRefPattern stops a reference at whitespace, '@' and '/', so one can
// sit inside a URL's userinfo.
var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s@/]+):([^\s@/]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineRefPattern.FindAllStringSubmatchIndex(value, -1)
	out := value
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		v, err := r.resolve(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + v + out[m[1]:]
	}
	return out, nil
}
