package request

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Size  int       `form:"size"`
}

type FreePeriodsQuery struct {
	Start           time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End             time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	DurationSeconds int64     `form:"duration_seconds" binding:"required,min=1"`
	Size            int       `form:"size"`
}

type SearchReservationsQuery struct {
	SubjectID *uuid.UUID `form:"subject_id"`
	ClusterID *uuid.UUID `form:"cluster_id"`
	Start     time.Time  `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End       time.Time  `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
}
