package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"github.com/maxaizer/job-tracker/internal/services"
	"net/http"
	"time"
)

type applyRequest struct {
	JobID     string   `json:"job_id" binding:"required"`
	ProfileID string   `json:"profile_id" binding:"required"`
	Questions []string `json:"questions"`
	Submit    bool     `json:"submit"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type responseRequest struct {
	Received bool `json:"received"`
}

func (s *Server) apply(c *gin.Context) {
	var request applyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.deps.Lifecycle.Apply(c.Request.Context(), currentSession(c), services.ApplyRequest{
		JobID:     request.JobID,
		ProfileID: request.ProfileID,
		Questions: request.Questions,
		Submit:    request.Submit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": result.Application, "warnings": result.Warnings})
}

func (s *Server) listApplications(c *gin.Context) {
	filter := models.ApplicationFilter{Company: c.Query("company")}

	if status := c.Query("status"); status != "" {
		parsed, err := models.ToStatus(status)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Status = parsed
	}
	from, err := queryDate(c, "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	filter.From = from
	// "to" is inclusive for the whole day
	if !to.IsZero() {
		filter.To = to.AddDate(0, 0, 1)
	}

	applications, err := s.deps.Applications.List(c.Request.Context(), currentSession(c).UserID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (s *Server) updateStatus(c *gin.Context) {
	var request statusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	change, err := s.deps.Lifecycle.UpdateStatus(c.Request.Context(), currentSession(c), c.Param("id"),
		request.Status, request.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (s *Server) setResponseReceived(c *gin.Context) {
	var request responseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	err := s.deps.Applications.SetResponseReceived(c.Request.Context(), currentSession(c).UserID, c.Param("id"),
		request.Received)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) history(c *gin.Context) {
	changes, err := s.deps.Applications.History(c.Request.Context(), currentSession(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, changes)
}

func queryDate(c *gin.Context, param string) (time.Time, error) {
	value := c.Query(param)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, value)
}
