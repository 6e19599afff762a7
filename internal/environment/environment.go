// Package environment provides the build-time environment configuration of
// the coffee shop client.
//
// Exactly one variant is compiled into a binary. The development variant is
// the default; building with -tags prod selects the production variant,
// whose values are injected at link time:
//
//	go build -tags prod -ldflags "\
//	  -X github.com/bear-san/coffee-shop/internal/environment.prodAPIServerURL=https://api.example.com \
//	  -X github.com/bear-san/coffee-shop/internal/environment.prodAuth0ClientID=..." ./cmd/coffeeshop
package environment

// Config is the environment record consumed by the API client and the
// identity-provider client.
type Config struct {
	Production   bool   `json:"production"   yaml:"production"`
	APIServerURL string `json:"apiServerUrl" yaml:"apiServerUrl"`
	Auth0        Auth0  `json:"auth0"        yaml:"auth0"`
}

// Auth0 describes the identity-provider integration.
type Auth0 struct {
	// URL is the tenant domain prefix (e.g. "kema"), not a full URL.
	URL         string `json:"url"         yaml:"url"`
	Audience    string `json:"audience"    yaml:"audience"`
	ClientID    string `json:"clientId"    yaml:"clientId"`
	CallbackURL string `json:"callbackURL" yaml:"callbackURL"`
}

// Current returns the environment compiled into this binary. The record is
// returned by value so callers can never alter the active environment.
func Current() Config {
	return active()
}
