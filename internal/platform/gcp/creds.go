package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// credentialEnvKeys are checked in order; the first non-empty value wins.
var credentialEnvKeys = []string{
	"MEDIA_GCS_CREDENTIALS",
	"GOOGLE_APPLICATION_CREDENTIALS_JSON",
	"GOOGLE_APPLICATION_CREDENTIALS",
}

// ClientOptions accepts inline service account JSON or a path to a key file.
// An empty value leaves the client on application default credentials.
func ClientOptions(creds string) []option.ClientOption {
	switch creds = strings.TrimSpace(creds); {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}

func ClientOptionsFromEnv() []option.ClientOption {
	for _, key := range credentialEnvKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return ClientOptions(v)
		}
	}
	return nil
}
