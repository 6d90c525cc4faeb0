package dto

// CreateUserRequest is the JSON body for POST /users.
// Active is optional; when absent the storage default applies.
type CreateUserRequest struct {
	Name   string  `json:"name" binding:"required,min=1,max=120"`
	Email  string  `json:"email" binding:"required,email,max=255"`
	Phone  *string `json:"phone" binding:"omitempty,max=32"`
	Active *bool   `json:"active"`
}

// UpdateUserRequest is the JSON body for PUT /users/{id}.
// All four mutable fields are replaced wholesale.
type UpdateUserRequest struct {
	Name   string  `json:"name" binding:"required,min=1,max=120"`
	Email  string  `json:"email" binding:"required,email,max=255"`
	Phone  *string `json:"phone" binding:"omitempty,max=32"`
	Active bool    `json:"active"`
}

// UserResponse is the JSON representation of a user.
type UserResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone"`
	Active bool    `json:"active"`
}

// ErrorResponse is the JSON body for all error statuses.
type ErrorResponse struct {
	Message string `json:"message"`
}
