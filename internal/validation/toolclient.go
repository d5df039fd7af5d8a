package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/orqestra/campaign-platform/internal/apierr"
)

// toolRequest/toolResponse is the JSON-RPC 2.0 "tools/call" envelope the
// orchestrator speaks to the external content-retrieval and
// channel-spec tools, matching the MCP gateway's wire shape (the
// orchestrator is the *caller* side of that protocol, mirroring
// internal/mcpgw.Gateway.HandleJSONRPC's "tools/call" case).
type toolRequest struct {
	Jsonrpc string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	Params  toolParams `json:"params"`
	ID      string     `json:"id"`
}

type toolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *toolError      `json:"error"`
	ID      string          `json:"id"`
}

type toolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// ToolClient calls external tools over JSON-RPC/HTTP, retrying
// transient failures with exponential backoff.
type ToolClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewToolClient(baseURL string) *ToolClient {
	return &ToolClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (c *ToolClient) call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	req := toolRequest{Jsonrpc: "2.0", Method: "tools/call", ID: uuid.NewString(), Params: toolParams{Name: tool, Arguments: args}}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			return err // retryable: connect/timeout
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("tool %s: upstream status %d", tool, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("tool %s: upstream status %d", tool, resp.StatusCode))
		}

		var rpcResp toolResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			return backoff.Permanent(fmt.Errorf("tool %s: malformed response: %w", tool, err))
		}
		if rpcResp.Error != nil {
			return backoff.Permanent(fmt.Errorf("tool %s: %s", tool, rpcResp.Error.Message))
		}
		result = rpcResp.Result
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, apierr.New(apierr.UpstreamUnavailable, err.Error())
	}
	return result, nil
}

// RetrievedContent is what retrieve_content returns for EMAIL/APP pieces
// (spec §4.3 step 2).
type RetrievedContent struct {
	HTML         string `json:"html,omitempty"`          // EMAIL
	RenderedImage []byte `json:"rendered_image,omitempty"` // EMAIL, for legal's visual review
	ImageDataURL string `json:"image_data_url,omitempty"` // APP
}

// RetrieveContent fetches the stored artifact for EMAIL/APP pieces via
// the external content-service tool.
func (c *ToolClient) RetrieveContent(ctx context.Context, campaignID, pieceID, commercialSpace string) (*RetrievedContent, error) {
	raw, err := c.call(ctx, "retrieve_content", map[string]any{
		"campaign_id": campaignID, "piece_id": pieceID, "commercial_space": commercialSpace,
	})
	if err != nil {
		return nil, err
	}
	var out RetrievedContent
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apierr.New(apierr.UpstreamOther, "retrieve_content: malformed payload")
	}
	return &out, nil
}

// GenerateText calls the external LLM tool for a one-off text
// generation request (spec §4.1 routing table's /api/ai/generate-text);
// unlike analyze-piece, this is a direct passthrough with no DAG.
func (c *ToolClient) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	raw, err := c.call(ctx, "generate_text", map[string]any{
		"prompt": prompt, "max_tokens": maxTokens,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apierr.New(apierr.UpstreamOther, "generate_text: malformed payload")
	}
	return out.Text, nil
}

// FetchChannelSpecs fetches the (channel, commercial_space, field) spec
// rows from the external tool; callers fall back to the local YAML
// copy (internal/config.LoadChannelSpecs) when this fails.
func (c *ToolClient) FetchChannelSpecs(ctx context.Context, channel, commercialSpace string) ([]SpecRow, error) {
	raw, err := c.call(ctx, "fetch_channel_specs", map[string]any{
		"channel": channel, "commercial_space": commercialSpace,
	})
	if err != nil {
		return nil, err
	}
	var out []SpecRow
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apierr.New(apierr.UpstreamOther, "fetch_channel_specs: malformed payload")
	}
	return out, nil
}
