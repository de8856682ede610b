package api

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (s *Server) register(c *gin.Context) {
	var request credentials
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.deps.Auth.Register(c.Request.Context(), request.Username, request.Password, request.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (s *Server) login(c *gin.Context) {
	var request credentials
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	session, err := s.deps.Auth.Authenticate(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.sessions.Create(session), "user_id": session.UserID})
}

func (s *Server) logout(c *gin.Context) {
	s.sessions.Delete(c.GetString(tokenKey))
	c.Status(http.StatusNoContent)
}
