package properties

import (
	"os"
	"path/filepath"
)

func RootPath() string {
	if root := os.Getenv("ROOT_PATH"); root != "" {
		return root
	}
	return "."
}

func OutputPath() string {
	return filepath.Join(RootPath(), "data", "result")
}

func CachePath() string {
	return filepath.Join(RootPath(), "data", "cache")
}

func EarthEngineProject() string {
	return os.Getenv("EE_PROJECT")
}

func EarthEngineAPIURL() string {
	return os.Getenv("EE_API_URL")
}

// EarthEngineCredentialsPath defaults to the location used by the Earth
// Engine command line tools.
func EarthEngineCredentialsPath() string {
	if path := os.Getenv("EE_CREDENTIALS_PATH"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "earthengine", "credentials")
}

func OAuthClientID() string {
	return os.Getenv("EE_OAUTH_CLIENT_ID")
}

func OAuthClientSecret() string {
	return os.Getenv("EE_OAUTH_CLIENT_SECRET")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
