package domain

// ApprovalNever lets the completion endpoint call tools without manual approval
const ApprovalNever = "never"

// PromptRef references an externally managed prompt template
type PromptRef struct {
	ID      string
	Version string
}

// ToolGateway describes a remote MCP tool server attached to a request
type ToolGateway struct {
	Label           string
	ServerURL       string
	Headers         map[string]string
	RequireApproval string
}

// ToolInfo is a tool advertised by the gateway
type ToolInfo struct {
	Name        string
	Description string
}

// CompletionRequest represents one request to the completion endpoint
type CompletionRequest struct {
	Prompt             PromptRef
	PreviousResponseID string // Empty on the first turn of a scope
	Model              string
	Input              string
	Tools              []ToolGateway
	Store              bool
}

// HasPrevious checks if the request threads from an earlier turn
func (r *CompletionRequest) HasPrevious() bool {
	return r.PreviousResponseID != ""
}

// Completion is a successful completion result
type Completion struct {
	ResponseID string
	OutputText string
}
