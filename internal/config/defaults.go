package config

const (
	defaultConfigPath          = "~/.config/digiposte/config.toml"
	projectConfigName          = "digiposte.toml"
	envConfigPath              = "DIGIPOSTE_CONFIG"
	envToken                   = "DIGIPOSTE_TOKEN"
	defaultAPIBaseURL          = "https://api.digiposte.fr/api/v3"
	defaultLoginURL            = "https://secure.digiposte.fr/identification-plus"
	defaultTokenFile           = "~/.local/share/digiposte/token"
	defaultStateFile           = "~/.local/share/digiposte/auth.json"
	defaultPollIntervalSeconds = 1
	defaultLoginTimeoutSeconds = 300
	defaultCacheDirFallback    = "~/.cache/digiposte"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL: defaultAPIBaseURL,
		},
		Auth: Auth{
			Interactive:         true,
			LoginURL:            defaultLoginURL,
			TokenFile:           defaultTokenFile,
			StateFile:           defaultStateFile,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			LoginTimeoutSeconds: defaultLoginTimeoutSeconds,
		},
		Mount: Mount{
			CacheDir: defaultCacheDir(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
