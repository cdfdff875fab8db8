// Package api contains the HTTP handlers for the recommendation service.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"fitstack/backend/internal/auth"
	"fitstack/backend/internal/pipeline"
	"fitstack/backend/internal/repository"
	"fitstack/backend/pkg/models"
)

// RecommendationService is the service surface the handlers depend on.
type RecommendationService interface {
	Recommend(ctx context.Context, userID string, req models.RecommendationRequest) (*models.Recommendation, error)
	GetRecommendation(ctx context.Context, id, userID string) (*models.Recommendation, error)
	ListRecommendations(ctx context.Context, userID string) ([]*models.Recommendation, error)
}

// Server holds the dependencies for the API server.
type Server struct {
	Recommendations RecommendationService
}

// NewServer creates a new Server.
func NewServer(recs RecommendationService) *Server {
	return &Server{Recommendations: recs}
}

// RegisterHandlers mounts the recommendation routes on the given group.
func (s *Server) RegisterHandlers(g *echo.Group) {
	g.POST("/recommendations", s.CreateRecommendation)
	g.GET("/recommendations", s.ListRecommendations)
	g.GET("/recommendations/:id", s.GetRecommendation)
}

// CreateRecommendation runs the pipeline for the authenticated requester.
// (POST /api/v1/recommendations)
func (s *Server) CreateRecommendation(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserID(ctx)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "requester identity not found in context", nil)
	}

	var req models.RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
	}

	rec, err := s.Recommendations.Recommend(ctx, userID, req)
	if err != nil {
		return recommendationProblem(c, err)
	}

	return c.JSON(http.StatusCreated, rec)
}

// GetRecommendation returns one of the requester's recommendations.
// (GET /api/v1/recommendations/:id)
func (s *Server) GetRecommendation(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserID(ctx)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "requester identity not found in context", nil)
	}

	rec, err := s.Recommendations.GetRecommendation(ctx, c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return problem(c, http.StatusNotFound, "Not found", "no such recommendation", nil)
		}
		return problem(c, http.StatusInternalServerError, "Lookup failed", err.Error(), nil)
	}

	return c.JSON(http.StatusOK, rec)
}

// ListRecommendations returns the requester's history.
// (GET /api/v1/recommendations)
func (s *Server) ListRecommendations(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := auth.UserID(ctx)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "requester identity not found in context", nil)
	}

	recs, err := s.Recommendations.ListRecommendations(ctx, userID)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Lookup failed", err.Error(), nil)
	}
	if recs == nil {
		recs = []*models.Recommendation{}
	}

	return c.JSON(http.StatusOK, recs)
}

// recommendationProblem maps the pipeline's error taxonomy onto HTTP
// problem responses.
func recommendationProblem(c echo.Context, err error) error {
	var inputErr *pipeline.InputError
	if errors.As(err, &inputErr) {
		return problem(c, http.StatusBadRequest, "Invalid request", inputErr.Error(), nil)
	}

	var noCompliant *pipeline.NoCompliantCandidatesError
	if errors.As(err, &noCompliant) {
		return problem(c, http.StatusUnprocessableEntity, "No compliant candidates", noCompliant.Error(), &RejectionBreakdown{
			Banned:     noCompliant.Counts.Banned,
			Restricted: noCompliant.Counts.Restricted,
			Unknown:    noCompliant.Counts.Unknown,
		})
	}

	var genErr *pipeline.GenerationError
	if errors.As(err, &genErr) {
		return problem(c, http.StatusBadGateway, "Generation failed", genErr.Error(), nil)
	}

	var integrityErr *pipeline.IntegrityError
	if errors.As(err, &integrityErr) {
		return problem(c, http.StatusConflict, "Compliance verification failed", integrityErr.Error(), nil)
	}

	return problem(c, http.StatusInternalServerError, "Recommendation failed", err.Error(), nil)
}

func problem(c echo.Context, status int, title, detail string, rejections *RejectionBreakdown) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:       "about:blank",
		Title:      title,
		Status:     status,
		Detail:     detail,
		Rejections: rejections,
	})
}
