package secret_test

import (
	"context"
	"fmt"
	"os"

	"github.com/jonwraymond/cachefu/secret"
)

func ExampleParseRef() {
	provider, ref, ok := secret.ParseRef("secretref:file:redis-password")
	fmt.Println(provider, ref, ok)
	// Output: file redis-password true
}

func ExampleResolver_ResolveValue() {
	_ = os.Setenv("EXAMPLE_REDIS_PASSWORD", "hunter2")
	defer os.Unsetenv("EXAMPLE_REDIS_PASSWORD")

	r, err := secret.NewResolver(true, secret.EnvProvider{})
	if err != nil {
		fmt.Println(err)
		return
	}
	url, err := r.ResolveValue(context.Background(), "redis://:secretref:env:EXAMPLE_REDIS_PASSWORD@localhost:6379/0")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(url)
	// Output: redis://:hunter2@localhost:6379/0
}
