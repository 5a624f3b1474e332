// Package fakes provides test doubles for the cloud clients and secret
// stores cienv talks to.
//
// Fakes are manually implemented (not generated) to give precise control
// over test behavior. Each one satisfies the narrow client interface its
// production counterpart accepts.
//
// Usage:
//
//	fake := fakes.NewFakeSecretsManagerClient()
//	fake.AddSecretString("ci/token", "secret123")
//	store := providers.NewAWSSecretsManagerStore(fake)
package fakes
