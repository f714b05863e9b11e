package response

import (
	"time"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID         uuid.UUID  `json:"id"`
	SubjectID  uuid.UUID  `json:"subject_id"`
	OwnerID    *uuid.UUID `json:"owner_id,omitempty"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Size       int        `json:"size"`
	Exclusive  bool       `json:"exclusive"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	Approved   bool       `json:"approved"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

type GroupReservationResponse struct {
	GroupID      uuid.UUID             `json:"group_id"`
	Reservations []ReservationResponse `json:"reservations"`
}

func FromReservation(r *reservation.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:         r.ID(),
		SubjectID:  r.SubjectID(),
		OwnerID:    r.OwnerID(),
		Start:      r.Span().Start(),
		End:        r.Span().End(),
		Size:       r.Size(),
		Exclusive:  r.Exclusive(),
		GroupID:    r.GroupID(),
		Approved:   r.Approved(),
		ValidUntil: r.ValidUntil(),
	}
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromReservationViews(views []queries.ReservationView) []ReservationResponse {
	resps := make([]ReservationResponse, len(views))
	for i := range views {
		resps[i] = *FromReservationView(&views[i])
	}
	return resps
}

func FromGroupResult(groupID uuid.UUID, reservations []*reservation.Reservation) *GroupReservationResponse {
	resps := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resps[i] = *FromReservation(r)
	}
	return &GroupReservationResponse{GroupID: groupID, Reservations: resps}
}
