package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/oncp/resolution-mcp/internal/client"
)

const (
	queuedMessage       = "Resolution job queued successfully."
	unknownStatus       = "UNKNOWN"
	analysisPlaceholder = "No analysis was provided for this job."
)

// Deps holds the runtime dependencies injected into every tool handler. The
// client handle is passed in at registration, so a handler can never observe
// a half-initialized state.
type Deps struct {
	Client *client.Client
	Logger *zap.Logger
}

// logger returns the injected logger, defaulting to a no-op so handlers stay
// safe however Deps was constructed.
func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Register wires the three resolution tools onto the MCP server.
func Register(s *server.MCPServer, deps Deps) {
	s.AddTool(mcp.NewTool("start_resolution",
		mcp.WithDescription("Initiates a diagnosis and resolution process for a reported application issue. Returns a JSON object containing a 'job_id' which is required for subsequent status checks."),
		mcp.WithString("hostname", mcp.Required(),
			mcp.Description("The hostname or service identifier where the issue is occurring (e.g., 'web-server-01').")),
		mcp.WithString("error_code", mcp.Required(),
			mcp.Description("The specific error code or signal identifier (e.g., '500', 'CONNECTION_REFUSED').")),
		mcp.WithString("issue_description", mcp.Required(),
			mcp.Description("A detailed natural language description of the problem to guide the analysis.")),
	), startResolutionHandler(deps))

	s.AddTool(mcp.NewTool("check_resolution_status",
		mcp.WithDescription("Polls the status of a previously started resolution job to determine if it is still running or has completed. Requires the 'job_id'."),
		mcp.WithString("job_id", mcp.Required(),
			mcp.Description("The unique job identifier returned by the start_resolution tool.")),
	), checkResolutionStatusHandler(deps))

	s.AddTool(mcp.NewTool("get_resolution_reasoning",
		mcp.WithDescription("Retrieves the full technical analysis, reasoning, and recommended remediation steps for a job. Best used after the job status is 'COMPLETED'."),
		mcp.WithString("job_id", mcp.Required(),
			mcp.Description("The unique job identifier returned by the start_resolution tool.")),
	), getResolutionReasoningHandler(deps))

	deps.logger().Info("resolution tools registered")
}

// startResolutionHandler launches a downstream resolution job and returns its
// job ID.
func startResolutionHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocationID := uuid.NewString()

		hostname, err := requireArg(req, "hostname")
		if err != nil {
			return errorResult(deps, "start_resolution", invocationID, err), nil
		}
		errorCode, err := requireArg(req, "error_code")
		if err != nil {
			return errorResult(deps, "start_resolution", invocationID, err), nil
		}
		issueDescription, err := requireArg(req, "issue_description")
		if err != nil {
			return errorResult(deps, "start_resolution", invocationID, err), nil
		}

		response, err := deps.Client.LaunchResolution(ctx, hostname, errorCode, issueDescription)
		if err != nil {
			return errorResult(deps, "start_resolution", invocationID, err), nil
		}

		jobID := stringField(response, "job_id", "")
		if jobID == "" {
			err := &client.APIError{Message: "resolution API response did not include a job_id."}
			return errorResult(deps, "start_resolution", invocationID, err), nil
		}

		result := map[string]string{
			"job_id":  jobID,
			"status":  stringField(response, "status", unknownStatus),
			"message": queuedMessage,
		}

		notifyClient(ctx, fmt.Sprintf("Resolution job %s queued.", jobID))
		deps.logger().Info("resolution_tool_event",
			zap.String("tool", "start_resolution"),
			zap.String("event", "success"),
			zap.String("invocation_id", invocationID),
			zap.String("job_id", jobID),
			zap.String("status", result["status"]))
		return jsonResult(result), nil
	}
}

// checkResolutionStatusHandler returns the current lifecycle state for the
// requested job.
func checkResolutionStatusHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocationID := uuid.NewString()

		jobID, err := requireArg(req, "job_id")
		if err != nil {
			return errorResult(deps, "check_resolution_status", invocationID, err), nil
		}

		response, err := deps.Client.GetJobStatus(ctx, jobID)
		if err != nil {
			return errorResult(deps, "check_resolution_status", invocationID, err), nil
		}

		result := map[string]string{
			"job_id": stringField(response, "job_id", jobID),
			"status": stringField(response, "status", unknownStatus),
		}

		deps.logger().Info("resolution_tool_event",
			zap.String("tool", "check_resolution_status"),
			zap.String("event", "success"),
			zap.String("invocation_id", invocationID),
			zap.String("job_id", result["job_id"]),
			zap.String("status", result["status"]))
		return jsonResult(result), nil
	}
}

// getResolutionReasoningHandler returns the diagnostic/analysis text captured
// by the downstream agent.
func getResolutionReasoningHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocationID := uuid.NewString()

		jobID, err := requireArg(req, "job_id")
		if err != nil {
			return errorResult(deps, "get_resolution_reasoning", invocationID, err), nil
		}

		response, err := deps.Client.GetJobAnalysis(ctx, jobID)
		if err != nil {
			return errorResult(deps, "get_resolution_reasoning", invocationID, err), nil
		}

		thoughts := stringField(response, "thoughts", "")
		if thoughts == "" {
			thoughts = analysisPlaceholder
		}
		result := map[string]string{
			"job_id":   stringField(response, "job_id", jobID),
			"thoughts": thoughts,
		}

		deps.logger().Info("resolution_tool_event",
			zap.String("tool", "get_resolution_reasoning"),
			zap.String("event", "success"),
			zap.String("invocation_id", invocationID),
			zap.String("job_id", result["job_id"]))
		return jsonResult(result), nil
	}
}

// requireArg extracts a string argument and rejects empty or all-whitespace
// values before any network call happens.
func requireArg(req mcp.CallToolRequest, name string) (string, error) {
	value, err := req.RequireString(name)
	if err != nil {
		return "", &client.ValidationError{Field: name}
	}
	return client.RequireNonEmpty(value, name)
}

// stringField reads a string field out of a decoded JSON payload, falling
// back when the field is absent, empty, or not a string.
func stringField(payload map[string]interface{}, key, fallback string) string {
	if value, ok := payload[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// errorResult converts any failure into the uniform {"error": ...} shape. No
// error ever escapes a handler.
func errorResult(deps Deps, tool, invocationID string, err error) *mcp.CallToolResult {
	var apiErr *client.APIError
	var validationErr *client.ValidationError

	var message, event string
	switch {
	case errors.As(err, &apiErr):
		message = apiErr.Error()
		event = "api_error"
	case errors.As(err, &validationErr):
		message = validationErr.Error()
		event = "validation_error"
	default:
		message = fmt.Sprintf("Unexpected error: %s", err)
		event = "unexpected_error"
	}

	deps.logger().Warn("resolution_tool_event",
		zap.String("tool", tool),
		zap.String("event", event),
		zap.String("invocation_id", invocationID),
		zap.String("error", message))
	return jsonResult(map[string]string{"error": message})
}

// jsonResult renders the flat result map as JSON text content.
func jsonResult(result map[string]string) *mcp.CallToolResult {
	encoded, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf(`{"error": "Unexpected error: %s"}`, err))
	}
	return mcp.NewToolResultText(string(encoded))
}

// notifyClient emits an informational notification on the MCP side channel
// when a server session is attached to the context.
func notifyClient(ctx context.Context, message string) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	_ = srv.SendNotificationToClient(ctx, "notifications/message", map[string]interface{}{
		"level": "info",
		"data":  message,
	})
}
