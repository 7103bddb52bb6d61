package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ExchangeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type CompleteRequest struct {
	AccessToken string `json:"access_token"`
}

type CreateCreatureRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt"`
}
