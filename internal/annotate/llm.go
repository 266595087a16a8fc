package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	claudeEndpoint = "https://api.anthropic.com/v1/messages"
	openaiEndpoint = "https://api.openai.com/v1/chat/completions"
)

const annotatePrompt = `You label social media posts about crypto airdrops and testnets.
List every organization or crypto project named in the post, then split the post into sentences.
%s
Format your response EXACTLY like this, one item per line, in the order they appear in the post:
ORG: <name exactly as written in the post>
SENTENCE: <sentence copied verbatim from the post>

Post: %s`

// chatProvider sends a single-turn prompt and returns the reply text.
type chatProvider interface {
	call(ctx context.Context, prompt string) (string, error)
}

// LLMAnnotator asks a hosted chat model to label organizations and split
// sentences. Any transport or API failure is reported as ErrUnavailable.
type LLMAnnotator struct {
	provider chatProvider
	projects []string
}

// NewLLMAnnotator creates an annotator backed by provider ("claude" or "openai").
func NewLLMAnnotator(provider, model, apiKey string, projects []string) (*LLMAnnotator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("annotator provider %q needs an API key", provider)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var p chatProvider
	switch provider {
	case "claude":
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		p = &claudeProvider{apiKey: apiKey, model: model, client: client, endpoint: claudeEndpoint}
	case "openai":
		if model == "" {
			model = "gpt-4o-mini"
		}
		p = &openaiProvider{apiKey: apiKey, model: model, client: client, endpoint: openaiEndpoint}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: claude, openai)", provider)
	}
	return &LLMAnnotator{provider: p, projects: projects}, nil
}

func (l *LLMAnnotator) Annotate(ctx context.Context, text string) (Document, error) {
	hint := ""
	if len(l.projects) > 0 {
		hint = "Known projects include: " + strings.Join(l.projects, ", ") + "."
	}
	reply, err := l.provider.call(ctx, fmt.Sprintf(annotatePrompt, hint, text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseAnnotation(text, reply), nil
}

// parseAnnotation reads ORG/SENTENCE lines. Spans are re-ordered by where
// they occur in text, since models do not reliably keep document order;
// names that do not occur in text sort last.
func parseAnnotation(text, reply string) Document {
	type found struct {
		span  Span
		start int
	}
	var (
		orgs      []found
		sentences []string
	)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ORG:"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "ORG:"))
			if name == "" {
				continue
			}
			start := strings.Index(text, name)
			if start < 0 {
				start = len(text)
			}
			orgs = append(orgs, found{Span{Text: name, Label: LabelOrg}, start})
		case strings.HasPrefix(line, "SENTENCE:"):
			if s := strings.TrimSpace(strings.TrimPrefix(line, "SENTENCE:")); s != "" {
				sentences = append(sentences, s)
			}
		}
	}

	sort.SliceStable(orgs, func(i, j int) bool { return orgs[i].start < orgs[j].start })
	spans := make([]Span, len(orgs))
	for i, o := range orgs {
		spans[i] = o.span
	}
	return NewDocument(spans, sentences)
}

// --- Claude provider ---

type claudeProvider struct {
	apiKey   string
	model    string
	client   *http.Client
	endpoint string
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 512,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey   string
	model    string
	client   *http.Client
	endpoint string
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}
