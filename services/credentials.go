// ABOUTME: Static client credentials for the records API login endpoint
// ABOUTME: Validated once at startup and never mutated afterwards

package services

import "fmt"

// Credentials identify this service to the records API. UserToken is optional
// and only sent when set.
type Credentials struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	UserToken    string
}

// NewCredentials returns an error naming the first missing required value.
func NewCredentials(apiKey, clientID, clientSecret, userToken string) (Credentials, error) {
	for _, req := range []struct {
		name  string
		value string
	}{
		{"EKA_API_KEY", apiKey},
		{"EKA_CLIENT_ID", clientID},
		{"EKA_CLIENT_SECRET", clientSecret},
	} {
		if req.value == "" {
			return Credentials{}, fmt.Errorf("missing required credential: %s", req.name)
		}
	}
	return Credentials{
		APIKey:       apiKey,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserToken:    userToken,
	}, nil
}

func (c Credentials) loginPayload() map[string]string {
	payload := map[string]string{
		"api_key":       c.APIKey,
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
	}
	if c.UserToken != "" {
		payload["user_token"] = c.UserToken
	}
	return payload
}
