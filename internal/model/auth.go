package model

// APIClient - 검증된 bearer token 의 주체
type APIClient struct {
	Subject string
}

// TokenResponse - `token` 명령이 출력하는 발급 결과
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}
