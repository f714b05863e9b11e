package api

import (
	"errors"
	"net/http"

	"kitabu/internal/domain/reservation"
	"kitabu/internal/domain/subject"
	"kitabu/internal/domain/validator"
	reqdto "kitabu/internal/handler/dto/request"
	resdto "kitabu/internal/handler/dto/response"
	"kitabu/internal/handler/middleware"
	"kitabu/internal/infra"
	"kitabu/internal/usecase/commands"
	"kitabu/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationCommands commands.ReservationCommands
	reservationQueries  queries.ReservationQueries
}

func NewReservationHandler(reservationCommands commands.ReservationCommands, reservationQueries queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		reservationCommands: reservationCommands,
		reservationQueries:  reservationQueries,
	}
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	res, err := h.reservationCommands.Reserve(c.Request.Context(), req.ToParams(ownerID))
	if err != nil {
		respondReserveError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromReservation(res))
}

func (h *ReservationHandler) ReserveGroup(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.GroupReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.reservationCommands.ReserveGroup(c.Request.Context(), req.ToParams(ownerID))
	if err != nil {
		var atomicErr *commands.AtomicReserveError
		if errors.As(err, &atomicErr) {
			respondReserveError(c, atomicErr.Cause)
			return
		}
		respondReserveError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromGroupResult(result.Group.ID(), result.Reservations))
}

func (h *ReservationHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	res, err := h.reservationCommands.Approve(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, reservation.ErrAlreadyApproved):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation is already approved",
			})
		case errors.Is(err, reservation.ErrReservationExpired):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation validity period has expired",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservation(res))
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	view, err := h.reservationQueries.GetReservation(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) GetOwnerReservations(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var query reqdto.SearchReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	views, err := h.reservationQueries.SearchReservations(c.Request.Context(), queries.ReservationFilter{
		SubjectID: query.SubjectID,
		ClusterID: query.ClusterID,
		OwnerID:   &ownerID,
		Start:     query.Start,
		End:       query.End,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationViews(views))
}

func (h *ReservationHandler) GetGroupReservations(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid group ID format",
		})
		return
	}

	views, err := h.reservationQueries.ListGroupReservations(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationViews(views))
}

func respondReserveError(c *gin.Context, err error) {
	var invalidPeriod *validator.InvalidPeriodError
	var tooMany *validator.TooManyReservationsError

	switch {
	case errors.Is(err, commands.ErrSubjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Subject not found",
		})
	case errors.Is(err, reservation.ErrInvalidSpan):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Reservation start must be before end",
		})
	case errors.Is(err, commands.ErrExclusiveSizeFixed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Size cannot be set on an exclusive reservation",
		})
	case errors.Is(err, commands.ErrConflictingApprovalArgs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Conflicting approval arguments",
		})
	case errors.Is(err, reservation.ErrNonPositiveSize):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Reservation size must be positive",
		})
	case errors.As(err, &invalidPeriod):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": invalidPeriod.Message,
		})
	case errors.As(err, &tooMany):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Reservation limit reached",
		})
	case errors.Is(err, subject.ErrSizeExceeded):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Subject capacity exceeded",
		})
	case errors.Is(err, subject.ErrOverlappingReservations):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Overlapping reservations",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
