package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"net/http"
)

func (s *Server) stats(c *gin.Context) {
	stats, err := s.deps.Account.Stats(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) analytics(c *gin.Context) {
	analytics, err := s.deps.Account.Analytics(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.deps.Settings.Get(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings.Public())
}

func (s *Server) patchSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(c, err)
		return
	}

	settings, err := s.deps.Settings.Save(c.Request.Context(), currentSession(c).UserID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings.Public())
}

func (s *Server) export(c *gin.Context) {
	data, err := s.deps.Account.Export(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="job-tracker-export.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) deleteAccount(c *gin.Context) {
	session := currentSession(c)
	if err := s.deps.Account.Delete(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}
	s.sessions.DeleteUser(session.UserID)
	c.Status(http.StatusNoContent)
}
