package request

import (
	"encoding/json"
	"time"

	"kitabu/internal/domain/validator"
	"kitabu/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateSubjectRequest struct {
	Name                  string     `json:"name" binding:"required"`
	Capacity              int        `json:"capacity" binding:"required,min=1"`
	Exclusive             bool       `json:"exclusive"`
	ApprovalWindowSeconds *int64     `json:"approval_window_seconds,omitempty"`
	ClusterID             *uuid.UUID `json:"cluster_id,omitempty"`
}

func (r CreateSubjectRequest) ToParams() commands.CreateSubjectParams {
	params := commands.CreateSubjectParams{
		Name:      r.Name,
		Capacity:  r.Capacity,
		Exclusive: r.Exclusive,
		ClusterID: r.ClusterID,
	}
	if r.ApprovalWindowSeconds != nil {
		window := time.Duration(*r.ApprovalWindowSeconds) * time.Second
		params.ApprovalWindow = &window
	}
	return params
}

type ResizeSubjectRequest struct {
	Capacity int `json:"capacity" binding:"required,min=1"`
}

type CreateValidatorRequest struct {
	Kind       string          `json:"kind" binding:"required"`
	Params     json.RawMessage `json:"params"`
	ApplyToAll bool            `json:"apply_to_all"`
}

func (r CreateValidatorRequest) ToParams() commands.CreateValidatorParams {
	params := r.Params
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	return commands.CreateValidatorParams{
		Kind:       validator.Kind(r.Kind),
		Params:     params,
		ApplyToAll: r.ApplyToAll,
	}
}

type AttachValidatorRequest struct {
	ValidatorID uuid.UUID `json:"validator_id" binding:"required"`
}

type CreateClusterRequest struct {
	Name string `json:"name" binding:"required"`
}
