package dto

// AuthRequest describes login/password payload.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// ErrorResponse carries a stable error message for business failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse maps field names to validation failures.
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}
