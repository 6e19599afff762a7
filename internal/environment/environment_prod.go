//go:build prod

package environment

// BuildMode identifies the active build configuration.
const BuildMode = "prod"

// Set with -ldflags "-X ...". Left empty, the consumers refuse to start.
var (
	prodAPIServerURL     string
	prodAuth0URL         string
	prodAuth0Audience    string
	prodAuth0ClientID    string
	prodAuth0CallbackURL string
)

func active() Config {
	return Config{
		Production:   true,
		APIServerURL: prodAPIServerURL,
		Auth0: Auth0{
			URL:         prodAuth0URL,
			Audience:    prodAuth0Audience,
			ClientID:    prodAuth0ClientID,
			CallbackURL: prodAuth0CallbackURL,
		},
	}
}
