package domain

type User struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Roll      int    `json:"roll"`
}

// Tokens are opaque bearer credentials issued by the OAuth provider. They
// are never decoded client side.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in,omitempty"`
}

func (t Tokens) Valid() bool {
	return t.AccessToken != ""
}
