// Package secret resolves credentials in store configuration.
//
// Values go through two steps:
//   - Strict environment expansion (see ExpandEnv).
//   - Replacement of secret references by a registered Provider.
//
// References use the prefix "secretref:":
//   - Full value:  secretref:file:redis-password
//   - Inline use:  redis://:secretref:env:REDIS_PASSWORD@cache:6379/0
//
// DefaultResolver registers the "env" and "file" providers. The file
// provider reads mounted secrets such as /run/secrets/<name>.
package secret
