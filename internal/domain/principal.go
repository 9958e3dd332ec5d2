package domain

// Principal captures the normalized identity of an authenticated caller.
type Principal struct {
	// UserID is the stable subject from the identity provider. All data
	// ownership checks key off this value.
	UserID  string
	Subject string
	Issuer  string
	Email   string
	Name    string
}
