package config

// AuthConfig maps user names to bcrypt password hashes.
// An empty map disables authentication.
type AuthConfig struct {
	Realm string            `json:"realm,omitempty" yaml:"realm,omitempty"`
	Users map[string]string `json:"users,omitempty" yaml:"users,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// NewDefaultAuthConfig creates default auth configuration
func NewDefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Realm: "pagewatch",
		Users: map[string]string{},
	}
}
