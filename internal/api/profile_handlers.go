package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"net/http"
)

func (s *Server) listProfiles(c *gin.Context) {
	profiles, err := s.deps.Profiles.GetByUser(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) createProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		badRequest(c, err)
		return
	}

	profile.ID = ""
	profile.UserID = currentSession(c).UserID
	if err := s.deps.Profiles.Add(c.Request.Context(), &profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (s *Server) deleteProfile(c *gin.Context) {
	if err := s.deps.Profiles.Remove(c.Request.Context(), currentSession(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
