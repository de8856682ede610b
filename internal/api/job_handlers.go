package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/job-tracker/internal/domain/models"
	"net/http"
	"strconv"
)

type searchRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

func (s *Server) listJobs(c *gin.Context) {
	filter := models.JobFilter{Company: c.Query("company")}

	if source := c.Query("source"); source != "" {
		parsed, err := models.ToSource(source)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Source = parsed
	}
	if minScore := c.Query("min_score"); minScore != "" {
		parsed, err := strconv.ParseFloat(minScore, 64)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.MinScore = parsed
	}
	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Limit = parsed
	}

	jobs, err := s.deps.Jobs.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) searchJobs(c *gin.Context) {
	var request searchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	jobs, err := s.deps.JobSearch.Search(c.Request.Context(), request.Keywords, request.Location, request.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) addManualJob(c *gin.Context) {
	var job models.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		badRequest(c, err)
		return
	}

	stored, err := s.deps.JobSearch.AddManual(c.Request.Context(), job)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}
