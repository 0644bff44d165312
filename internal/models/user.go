package models

// Session is the authenticated identity held by a dashboard profile.
type Session struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// LocalUser is an entry of the local mock user list. Hash is either a hex
// SHA-256 digest or an argon2id encoded hash.
type LocalUser struct {
	Username string `json:"username"`
	Hash     string `json:"hash"`
}
