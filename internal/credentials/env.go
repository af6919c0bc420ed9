package credentials

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	// Load a local .env when present so development credentials work
	// without exporting variables. Missing files are fine.
	_ = godotenv.Load()
}

// normalizeProviderName converts a provider name to the format used in
// environment variables. Example: "rest-main" becomes "REST_MAIN".
func normalizeProviderName(providerName string) string {
	normalized := strings.ToUpper(providerName)
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

// getEnvVarName returns the environment variable name for a provider field
func getEnvVarName(providerName, field string) string {
	return "HABITTRACK_" + normalizeProviderName(providerName) + "_" + strings.ToUpper(field)
}

// GetEmail retrieves the account email from environment variables
// Looks for: HABITTRACK_{PROVIDER_NAME}_EMAIL
func GetEmail(providerName string) string {
	if providerName == "" {
		return ""
	}
	return os.Getenv(getEnvVarName(providerName, "EMAIL"))
}

// GetPassword retrieves the password or API token from environment variables
// Looks for: HABITTRACK_{PROVIDER_NAME}_PASSWORD
func GetPassword(providerName string) string {
	if providerName == "" {
		return ""
	}
	return os.Getenv(getEnvVarName(providerName, "PASSWORD"))
}

// HasCredentials checks if credentials exist in environment variables
func HasCredentials(providerName string) bool {
	return GetEmail(providerName) != "" && GetPassword(providerName) != ""
}
