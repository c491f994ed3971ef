package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// authResponse is shared by login, refresh, and me: the refresh token itself
// never appears in a body, it travels only in the HTTP-only cookie.
type authResponse struct {
	User        userResponse `json:"user"`
	Permissions []string     `json:"permissions"`
	AccessToken string       `json:"access_token"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}
