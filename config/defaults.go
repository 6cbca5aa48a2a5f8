package config

import "time"

const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultAPIPrefix      = "/api/v1"
	DefaultProxyURL       = "http://localhost:3000"
	DefaultProxyPath      = "/api/backend"
	DefaultRequestTimeout = 30 * time.Second
)

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: "~/.local/share/deskmate",
		Backend: BackendSettings{
			URL:            DefaultBackendURL,
			APIPrefix:      DefaultAPIPrefix,
			RequestTimeout: DefaultRequestTimeout.String(),
		},
		Proxy: ProxySettings{
			URL:  DefaultProxyURL,
			Path: DefaultProxyPath,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# Deskmate Configuration
# Location: ~/.config/deskmate/settings.toml
# This file uses TOML format: https://toml.io

# Email the assistant backend scopes sessions to (required)
user_email = ""

# Directory for the debug log
data_directory = "~/.local/share/deskmate"

[backend]
# Executive assistant backend, reached directly
url = "http://localhost:8000"
api_prefix = "/api/v1"

# Sent as x-api-key when set
api_key = ""

# Upper bound for each start/chat/end call
request_timeout = "30s"

# Extra chat attempts after a connection failure (0 disables retries)
retry_attempts = 0

[proxy]
# Route assistant calls through the web app's backend proxy instead
enabled = false
url = "http://localhost:3000"
path = "/api/backend"
`
}
