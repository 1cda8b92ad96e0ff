package dto

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserDTO struct {
	Id    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignInResponse is flat on the wire, not envelope-wrapped.
type SignInResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	User       *UserDTO `json:"user,omitempty"`
	Token      string   `json:"token,omitempty"`
	IsAppValid bool     `json:"is_app_valid"`
	ExpiryDate string   `json:"expiry_date"`
}

type SubscriptionStatusResponse struct {
	IsAppValid bool   `json:"is_app_valid"`
	ExpiryDate string `json:"expiry_date"`
}
