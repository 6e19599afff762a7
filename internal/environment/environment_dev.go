//go:build !prod

package environment

// BuildMode identifies the active build configuration.
const BuildMode = "dev"

func active() Config {
	return Config{
		Production:   false,
		APIServerURL: "http://127.0.0.1:5000",
		Auth0: Auth0{
			URL:         "kema",
			Audience:    "firstApi",
			ClientID:    "2RlGtKAGsmFKrayr6Clq2w7CWcUA8DQj",
			CallbackURL: "http://localhost:8100",
		},
	}
}
