package request

import (
	"time"

	"kitabu/internal/usecase/commands"

	"github.com/google/uuid"
)

type ReserveRequest struct {
	SubjectID uuid.UUID `json:"subject_id" binding:"required"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end" binding:"required"`
	Size      int       `json:"size"`
	Exclusive bool      `json:"exclusive"`

	// At most one of the approval overrides may be set.
	Approved        *bool      `json:"approved,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	ValiditySeconds *int64     `json:"validity_seconds,omitempty"`
}

func (r ReserveRequest) ToParams(ownerID uuid.UUID) commands.ReserveParams {
	params := commands.ReserveParams{
		SubjectID:  r.SubjectID,
		OwnerID:    &ownerID,
		Start:      r.Start,
		End:        r.End,
		Size:       r.Size,
		Exclusive:  r.Exclusive,
		Approved:   r.Approved,
		ValidUntil: r.ValidUntil,
	}
	if r.ValiditySeconds != nil {
		period := time.Duration(*r.ValiditySeconds) * time.Second
		params.ValidityPeriod = &period
	}
	return params
}

type GroupReserveRequest struct {
	Requests []ReserveRequest `json:"requests" binding:"required,min=1,dive"`
}

func (r GroupReserveRequest) ToParams(ownerID uuid.UUID) []commands.ReserveParams {
	params := make([]commands.ReserveParams, len(r.Requests))
	for i, req := range r.Requests {
		params[i] = req.ToParams(ownerID)
	}
	return params
}
