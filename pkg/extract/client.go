// Package extract provides Claude-backed extraction of structured ownership
// facts from recorded property documents. The model is an opaque extraction
// capability behind a fixed input/output contract.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client defines the extraction operations.
type Client interface {
	// ExtractOwnership pulls owner parties and individual contacts out of
	// recorded document text.
	ExtractOwnership(ctx context.Context, req ExtractionRequest) (*Ownership, error)
}

// DocumentText is one document's text to analyze.
type DocumentText struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

// ExtractionRequest bundles the documents for one property.
type ExtractionRequest struct {
	Address   string         `json:"address"`
	Documents []DocumentText `json:"documents"`
}

// Party is an extracted owner or contact.
type Party struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // individual, llc, corporation, trust
	Role string `json:"role,omitempty"` // owner, manager, trustee, signatory
}

// Ownership is the structured extraction result.
type Ownership struct {
	Owners   []Party `json:"owners"`
	Contacts []Party `json:"contacts"`
}

// Config holds extraction model settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// NewClient creates an extraction client backed by the Anthropic SDK.
func NewClient(cfg Config) Client {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	return &sdkClient{
		cfg:    cfg,
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

type sdkClient struct {
	cfg    Config
	client sdk.Client
}

const systemPrompt = `You are a property records analyst. Extract ownership parties from recorded instruments (deeds, mortgages, assignments). Respond with JSON only, no prose, matching:
{"owners":[{"name":"...","type":"individual|llc|corporation|trust","role":"owner"}],"contacts":[{"name":"...","type":"individual","role":"..."}]}
Owners are current title holders; contacts are individuals who act for an entity owner (managers, trustees, signatories).`

func (c *sdkClient) ExtractOwnership(ctx context.Context, req ExtractionRequest) (*Ownership, error) {
	if len(req.Documents) == 0 {
		return &Ownership{}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Property address: " + req.Address + "\n\n")
	for _, doc := range req.Documents {
		prompt.WriteString("## Document " + doc.ID)
		if doc.Type != "" {
			prompt.WriteString(" (" + doc.Type + ")")
		}
		prompt.WriteString("\n" + doc.Text + "\n\n")
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt.String())),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	ownership, err := parseOwnership(text.String())
	if err != nil {
		return nil, err
	}
	return ownership, nil
}

// parseOwnership decodes the model's JSON answer, tolerating surrounding
// code fences or prose.
func parseOwnership(text string) (*Ownership, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("extract: no JSON object in response: %q", truncate(text, 200))
	}

	var result Ownership
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, eris.Wrap(err, "extract: unmarshal ownership")
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
