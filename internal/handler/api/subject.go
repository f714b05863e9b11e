package api

import (
	"errors"
	"net/http"

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

type SubjectHandler struct {
	subjectCommands    commands.SubjectCommands
	reservationQueries queries.ReservationQueries
}

func NewSubjectHandler(subjectCommands commands.SubjectCommands, reservationQueries queries.ReservationQueries) *SubjectHandler {
	return &SubjectHandler{
		subjectCommands:    subjectCommands,
		reservationQueries: reservationQueries,
	}
}

func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req reqdto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	subj, err := h.subjectCommands.CreateSubject(c.Request.Context(), req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, subject.ErrInvalidCapacity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Subject capacity must be positive",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromSubject(subj))
}

func (h *SubjectHandler) GetSubject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subject ID format",
		})
		return
	}

	view, err := h.reservationQueries.GetSubject(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Subject not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromSubjectView(view))
}

func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	views, err := h.reservationQueries.ListSubjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromSubjectViews(views))
}

func (h *SubjectHandler) ResizeSubject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subject ID format",
		})
		return
	}

	var req reqdto.ResizeSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	subj, err := h.subjectCommands.ResizeSubject(c.Request.Context(), id, req.Capacity)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrSubjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Subject not found",
			})
		case errors.Is(err, subject.ErrInvalidCapacity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Subject capacity must be positive",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSubject(subj))
}

func (h *SubjectHandler) CreateValidator(c *gin.Context) {
	var req reqdto.CreateValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	id, err := h.subjectCommands.CreateValidator(c.Request.Context(), req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, validator.ErrUnknownKind), errors.Is(err, validator.ErrInvalidParams):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid validator definition",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *SubjectHandler) AttachValidator(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subject ID format",
		})
		return
	}

	var req reqdto.AttachValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.subjectCommands.AttachValidator(c.Request.Context(), subjectID, req.ValidatorID); err != nil {
		switch {
		case infra.IsKind(err, infra.KindForeignKeyViolated):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Subject or validator not found",
			})
		case infra.IsKind(err, infra.KindDuplicateKey):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Validator is already attached",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SubjectHandler) CreateCluster(c *gin.Context) {
	ownerID, ok := middleware.GetOwnerID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	cl, err := h.subjectCommands.CreateCluster(c.Request.Context(), req.Name, &ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": cl.ID(), "name": cl.Name()})
}
