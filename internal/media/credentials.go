package media

import "context"

// CredentialProvider is consulted before every paid media request.
type CredentialProvider interface {
	HasCredential(ctx context.Context) bool
	// RequestCredential asks for a credential interactively where possible.
	// false means the user declined or none could be obtained.
	RequestCredential(ctx context.Context) (bool, error)
}

// StaticCredentials holds a key read from the environment. It cannot prompt.
type StaticCredentials struct {
	Key string
}

func (s StaticCredentials) HasCredential(context.Context) bool { return s.Key != "" }

func (s StaticCredentials) RequestCredential(context.Context) (bool, error) {
	return s.Key != "", nil
}
