package apiclient

import "context"

// Credentials supplies the bearer token for outgoing calls and is told when
// the API rejects it.
type Credentials interface {
	Token() string
	Expire(ctx context.Context) error
}

type credentialsKey struct{}

// WithCredentials attaches the caller's credentials to ctx.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom returns the credentials attached to ctx, or nil.
func CredentialsFrom(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(Credentials)
	return creds
}

// Identity accepts both "id" and Mongo-style "_id" resource identifiers.
type Identity struct {
	RawID   string `json:"id,omitempty"`
	MongoID string `json:"_id,omitempty"`
}

// ID returns whichever identifier the API supplied.
func (i Identity) ID() string {
	if i.RawID != "" {
		return i.RawID
	}
	return i.MongoID
}
