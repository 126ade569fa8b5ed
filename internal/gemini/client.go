package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// Client talks to the Generative Language REST API. One client serves both
// the conversation model and the TTS model; they differ only in model name
// and generation config.
type Client struct {
	http      *http.Client
	endpoint  string
	apiKey    string
	textModel string
	ttsModel  string
}

func NewClient(endpoint, apiKey, textModel, ttsModel string, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		textModel: textModel,
		ttsModel:  ttsModel,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// TTSConfigured reports whether speech synthesis can be attempted.
func (c *Client) TTSConfigured() bool { return c.apiKey != "" && c.ttsModel != "" }

// Wire types for the generateContent call. Only the fields this backend
// uses; the API tolerates omissions.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends the prompt to the text model and returns the joined
// text parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", types.ErrNotConfigured
	}
	resp, err := c.generate(ctx, c.textModel, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		break // first candidate only
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", types.Err(types.ErrBadResponse, nil, "model returned no text")
	}
	return text, nil
}

// Synthesize asks the TTS model for audio. The speaking rate is part of the
// request identity (and thus the cache key) but the model does not take it;
// rate adjustment stays client-side.
func (c *Client) Synthesize(ctx context.Context, req types.SpeechRequest) (types.SpeechClip, error) {
	if !c.TTSConfigured() {
		return types.SpeechClip{}, types.ErrNotConfigured
	}
	resp, err := c.generate(ctx, c.ttsModel, generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: req.VoiceName},
				},
			},
		},
	})
	if err != nil {
		return types.SpeechClip{}, err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return types.SpeechClip{}, types.Err(types.ErrBadResponse, err, "invalid base64 audio")
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "audio/wav"
			}
			return types.SpeechClip{
				AudioData:    p.InlineData.Data,
				ContentType:  mime,
				OriginalSize: len(raw),
			}, nil
		}
	}
	return types.SpeechClip{}, types.Err(types.ErrBadResponse, nil, "no audio data in response")
}

func (c *Client) generate(ctx context.Context, model string, payload generateRequest) (generateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return generateResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return generateResponse{}, types.Err(types.ErrUpstream, err, "")
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 32<<20))
	if err != nil {
		return generateResponse{}, types.Err(types.ErrUpstream, err, "read response")
	}
	if httpResp.StatusCode != http.StatusOK {
		return generateResponse{}, types.Err(types.ErrUpstream, nil, "status %d: %s", httpResp.StatusCode, truncate(respBody, 256))
	}
	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return generateResponse{}, types.Err(types.ErrBadResponse, err, "decode response")
	}
	if len(out.Candidates) == 0 {
		return generateResponse{}, types.Err(types.ErrBadResponse, nil, "no candidates")
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
