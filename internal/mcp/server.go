package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"fitstack/backend/internal/repository"
	"fitstack/backend/internal/services"
	"fitstack/backend/pkg/models"
)

type Server struct {
	mcpServer       *server.MCPServer
	recommendations *services.RecommendationService
	records         repository.ComplianceStore
	authority       string
}

func NewServer(recommendations *services.RecommendationService, records repository.ComplianceStore, authority string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Supplement Recommendations",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		recommendations: recommendations,
		records:         records,
		authority:       authority,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"recommend",
			mcp.WithDescription("Generate a compliance-screened supplement recommendation"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The requester's user ID")),
			mcp.WithString("goals", mcp.Required(), mcp.Description("Comma-separated training goals")),
			mcp.WithString("health_conditions", mcp.Description("Comma-separated health conditions")),
			mcp.WithString("workout_id", mcp.Description("Optional workout to tailor the recommendation to")),
		),
		s.handleRecommend,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_recommendation",
			mcp.WithDescription("Fetch one of the requester's recommendations with its citations"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The requester's user ID")),
			mcp.WithString("id", mcp.Required(), mcp.Description("The recommendation ID")),
		),
		s.handleGetRecommendation,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"check_ingredient",
			mcp.WithDescription("Look up the compliance records for a supplement ingredient"),
			mcp.WithString("ingredient", mcp.Required(), mcp.Description("The ingredient name")),
		),
		s.handleCheckIngredient,
	)
}

func (s *Server) handleRecommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	userID, ok := args["user_id"].(string)
	if !ok || userID == "" {
		return mcp.NewToolResultError("Missing required parameter: user_id"), nil
	}

	goals, ok := args["goals"].(string)
	if !ok || goals == "" {
		return mcp.NewToolResultError("Missing required parameter: goals"), nil
	}

	req := models.RecommendationRequest{
		Goals: splitList(goals),
	}
	if conditions, ok := args["health_conditions"].(string); ok {
		req.HealthConditions = splitList(conditions)
	}
	if workoutID, ok := args["workout_id"].(string); ok && workoutID != "" {
		req.WorkoutID = &workoutID
	}

	rec, err := s.recommendations.Recommend(ctx, userID, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to recommend: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(rec)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetRecommendation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	userID, ok := args["user_id"].(string)
	if !ok || userID == "" {
		return mcp.NewToolResultError("Missing required parameter: user_id"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	rec, err := s.recommendations.GetRecommendation(ctx, id, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch recommendation: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(rec)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCheckIngredient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	ingredient, ok := args["ingredient"].(string)
	if !ok || ingredient == "" {
		return mcp.NewToolResultError("Missing required parameter: ingredient"), nil
	}

	records, err := s.records.FindByIngredient(ctx, ingredient, s.authority)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to look up ingredient: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(records)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
