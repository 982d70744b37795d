// Package credential defines the username/password pair tried against the portal.
package credential

import "strings"

// Credential is one portal account. The JSON shape matches the
// credentials.json file written by earlier versions of the tool.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Valid reports whether the credential has a username. Passwords may be empty;
// the portal decides whether that is acceptable.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Username) != ""
}

// Usernames returns the usernames of creds in order.
func Usernames(creds []Credential) []string {
	names := make([]string, len(creds))
	for i, c := range creds {
		names[i] = c.Username
	}
	return names
}

// Find returns the index of the first credential with the given username,
// or -1.
func Find(creds []Credential, username string) int {
	for i, c := range creds {
		if c.Username == username {
			return i
		}
	}
	return -1
}
