package api

import (
	"errors"
	"net/http"
	"time"

	"kitabu/internal/domain/reservation"
	reqdto "kitabu/internal/handler/dto/request"
	resdto "kitabu/internal/handler/dto/response"
	"kitabu/internal/infra"
	"kitabu/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availabilityQueries queries.AvailabilityQueries
}

func NewAvailabilityHandler(availabilityQueries queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityQueries: availabilityQueries}
}

func (h *AvailabilityHandler) AvailableSubjects(c *gin.Context) {
	var query reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	views, err := h.availabilityQueries.AvailableSubjects(c.Request.Context(), query.Start, query.End, query.Size)
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSubjectViews(views))
}

func (h *AvailabilityHandler) ExclusivelyAvailableSubjects(c *gin.Context) {
	var query reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	views, err := h.availabilityQueries.ExclusivelyAvailableSubjects(c.Request.Context(), query.Start, query.End)
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSubjectViews(views))
}

func (h *AvailabilityHandler) AvailableClusters(c *gin.Context) {
	var query reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	views, err := h.availabilityQueries.AvailableClusters(c.Request.Context(), query.Start, query.End, query.Size)
	if err != nil {
		respondAvailabilityError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromClusterViews(views))
}

func (h *AvailabilityHandler) FreePeriods(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subject ID format",
		})
		return
	}

	var query reqdto.FreePeriodsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	minDuration := time.Duration(query.DurationSeconds) * time.Second
	windows, err := h.availabilityQueries.FreePeriods(c.Request.Context(), subjectID, query.Start, query.End, minDuration, query.Size)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Subject not found",
			})
			return
		}
		respondAvailabilityError(c, err)
		return
	}

	resp := make([]resdto.WindowResponse, len(windows))
	for i, w := range windows {
		resp[i] = resdto.WindowResponse{Start: w.Start, End: w.End}
	}
	c.JSON(http.StatusOK, resp)
}

func respondAvailabilityError(c *gin.Context, err error) {
	if errors.Is(err, reservation.ErrInvalidSpan) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Window start must be before end",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}
