package response

import (
	"time"

	"kitabu/internal/domain/subject"
	"kitabu/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type SubjectResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Capacity              int        `json:"capacity"`
	Exclusive             bool       `json:"exclusive"`
	ApprovalWindowSeconds *int64     `json:"approval_window_seconds,omitempty"`
	ClusterID             *uuid.UUID `json:"cluster_id,omitempty"`
}

type ClusterResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

type WindowResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func FromSubject(s *subject.Subject) *SubjectResponse {
	resp := &SubjectResponse{
		ID:        s.ID(),
		Name:      s.Name(),
		Capacity:  s.Capacity(),
		Exclusive: s.Exclusive(),
		ClusterID: s.ClusterID(),
	}
	if w := s.ApprovalWindow(); w != nil {
		seconds := int64(w.Seconds())
		resp.ApprovalWindowSeconds = &seconds
	}
	return resp
}

func FromSubjectView(view *queries.SubjectView) *SubjectResponse {
	var resp SubjectResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromSubjectViews(views []queries.SubjectView) []SubjectResponse {
	resps := make([]SubjectResponse, len(views))
	for i := range views {
		resps[i] = *FromSubjectView(&views[i])
	}
	return resps
}

func FromClusterViews(views []queries.ClusterView) []ClusterResponse {
	resps := make([]ClusterResponse, len(views))
	for i, view := range views {
		resps[i] = ClusterResponse{ID: view.ID, Name: view.Name, Capacity: view.Capacity}
	}
	return resps
}
