package data

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

// responsesRepo implements the completion repository on the Responses API
type responsesRepo struct {
	client openai.Client
}

// NewResponsesRepo creates a Responses API completion repository
func NewResponsesRepo(apiKey, baseURL string, opts ...option.RequestOption) repo.CompletionRepo {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)

	return &responsesRepo{client: openai.NewClient(all...)}
}

// Complete creates a response
func (r *responsesRepo) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error) {
	resp, err := r.client.Responses.New(ctx, buildResponseParams(req))
	if err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}

	return &domain.Completion{
		ResponseID: resp.ID,
		OutputText: resp.OutputText(),
	}, nil
}

func buildResponseParams(req *domain.CompletionRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.Input),
		},
		Store: openai.Bool(req.Store),
	}

	if req.Prompt.ID != "" {
		params.Prompt = responses.ResponsePromptParam{ID: req.Prompt.ID}
		if req.Prompt.Version != "" {
			params.Prompt.Version = openai.String(req.Prompt.Version)
		}
	}

	// Omitted entirely on the first turn of a scope
	if req.HasPrevious() {
		params.PreviousResponseID = openai.String(req.PreviousResponseID)
	}

	for _, tool := range req.Tools {
		mcpTool := &responses.ToolMcpParam{
			ServerLabel: tool.Label,
			ServerURL:   openai.String(tool.ServerURL),
			Headers:     tool.Headers,
		}
		if tool.RequireApproval != "" {
			mcpTool.RequireApproval = responses.ToolMcpRequireApprovalUnionParam{
				OfMcpToolApprovalSetting: openai.String(tool.RequireApproval),
			}
		}
		params.Tools = append(params.Tools, responses.ToolUnionParam{OfMcp: mcpTool})
	}

	return params
}
