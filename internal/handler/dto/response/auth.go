package response

import (
	"github.com/google/uuid"
)

type RegisterResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type LoginResponse struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Token   string    `json:"token"`
}
