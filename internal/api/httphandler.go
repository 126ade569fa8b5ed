package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"

	"github.com/reo-kambayashi/eikaiwa/internal/cache"
	"github.com/reo-kambayashi/eikaiwa/internal/gemini"
	"github.com/reo-kambayashi/eikaiwa/internal/ports"
	"github.com/reo-kambayashi/eikaiwa/internal/problems"
	"github.com/reo-kambayashi/eikaiwa/internal/prompts"
	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// Handler wires the HTTP surface to the cache runner and the upstream
// clients. Every endpoint answers 200 with a usable (possibly degraded)
// payload; upstream failures never surface as 5xx.
type Handler struct {
	Cfg      types.Config
	Runner   *cache.Runner
	Gen      ports.Generator
	TTS      ports.Synthesizer
	Trivia   ports.TriviaSource
	Problems *problems.Library
}

func NewHandler(cfg types.Config,
	runner *cache.Runner,
	gen ports.Generator,
	tts ports.Synthesizer,
	trivia ports.TriviaSource,
	lib *problems.Library,
) *Handler {
	return &Handler{
		Cfg:      cfg,
		Runner:   runner,
		Gen:      gen,
		TTS:      tts,
		Trivia:   trivia,
		Problems: lib,
	}
}

// Router assembles the endpoint mux with gzip, CORS and request logging.
// Gzip matters here: TTS responses carry base64 audio bodies in the
// hundreds of kilobytes.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/tts", h.handleTTS)
	mux.HandleFunc("/api/welcome", h.handleWelcome)
	mux.HandleFunc("/api/respond", h.handleRespond)
	mux.HandleFunc("/api/japanese-consultation", h.handleConsultation)
	mux.HandleFunc("/api/respond-with-audio", h.handleRespondWithAudio)
	mux.HandleFunc("/api/instant-translation/problem", h.handleTranslationProblem)
	mux.HandleFunc("/api/eiken-translation-problem", h.handleTranslationProblem)
	mux.HandleFunc("/api/instant-translation/check", h.handleTranslationCheck)
	mux.HandleFunc("/api/listening/problem", h.handleListeningProblem)
	mux.HandleFunc("/api/listening/check", h.handleListeningCheck)
	mux.HandleFunc("/api/listening/translate", h.handleListeningTranslate)
	return withLogging(withCORS(h.Cfg.AllowedOrigins, gzhttp.GzipHandler(mux)))
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]string{
		"message": "English Communication App API is running",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "eikaiwa-backend",
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	configured := h.Cfg.GeminiAPIKey != ""
	_ = writeJSON(w, http.StatusOK, types.Status{
		GeminiConfigured:    configured,
		GeminiTTSConfigured: configured,
		TTSConfigured:       configured,
	})
}

func (h *Handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req types.SpeechRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()

	clip := h.synthesizeCached(r.Context(), req)
	_ = writeJSON(w, http.StatusOK, clip)
}

// synthesizeCached runs TTS through the cache. A failed synthesis is cached
// briefly as a browser-TTS fallback so the frontend still speaks the text.
func (h *Handler) synthesizeCached(ctx context.Context, req types.SpeechRequest) types.SpeechClip {
	key := speechKey(req)
	v := h.Runner.GetOrCompute(ctx, key,
		func(ctx context.Context) (any, error) {
			return h.TTS.Synthesize(ctx, req)
		},
		func(err error) any {
			return types.SpeechClip{
				ContentType:   "text/plain",
				FallbackText:  req.Text,
				UseBrowserTTS: true,
				Error:         err.Error(),
			}
		})
	clip, ok := v.(types.SpeechClip)
	if !ok {
		return types.SpeechClip{ContentType: "text/plain", FallbackText: req.Text, UseBrowserTTS: true}
	}
	return clip
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	// Welcome messages should vary between visits, so this path skips the
	// cache but still runs on the bounded pool.
	v, err := h.Runner.Do(r.Context(), func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.Welcome())
	})
	reply := "Hello! Welcome to English Communication App! I'm here to help you practice English. How are you today?"
	switch {
	case err == nil:
		reply = v.(string)
	case errors.Is(err, types.ErrNotConfigured):
		reply = "Hello! Welcome to English Communication App! Please set up your API key to get started."
	case errors.Is(err, types.ErrBadResponse):
		reply = "Hello! Welcome to English Communication App! Let's start practicing English together!"
	}
	_ = writeJSON(w, http.StatusOK, types.Reply{Reply: reply})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req types.ConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	key := conversationKey("respond", req.Text, req.ConversationHistory)
	v := h.Runner.GetOrCompute(r.Context(), key,
		func(ctx context.Context) (any, error) {
			return h.Gen.GenerateText(ctx, prompts.Conversation(req.Text, req.ConversationHistory))
		},
		func(err error) any { return englishApology(err) })
	_ = writeJSON(w, http.StatusOK, types.Reply{Reply: v.(string)})
}

func englishApology(err error) string {
	switch {
	case errors.Is(err, types.ErrNotConfigured):
		return "API key not configured. Please set GEMINI_API_KEY environment variable."
	case errors.Is(err, types.ErrBadResponse):
		return "Sorry, I couldn't generate a response. Please try again."
	default:
		return "Sorry, there was an error processing your request. Please try again."
	}
}

func (h *Handler) handleConsultation(w http.ResponseWriter, r *http.Request) {
	var req types.ConsultationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	key := conversationKey("consultation", req.Text, req.ConversationHistory)
	v := h.Runner.GetOrCompute(r.Context(), key,
		func(ctx context.Context) (any, error) {
			return h.Gen.GenerateText(ctx, prompts.Consultation(req.Text, req.ConversationHistory))
		},
		func(err error) any {
			switch {
			case errors.Is(err, types.ErrNotConfigured):
				return "申し訳ありませんが、APIキーが設定されていません。GEMINI_API_KEYを設定してください。"
			case errors.Is(err, types.ErrBadResponse):
				return "申し訳ありませんが、回答を生成できませんでした。もう一度お試しください。"
			default:
				return "申し訳ありませんが、エラーが発生しました。もう一度お試しください。"
			}
		})
	_ = writeJSON(w, http.StatusOK, types.Reply{Reply: v.(string)})
}

func (h *Handler) handleRespondWithAudio(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req types.ConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	voiceName := r.URL.Query().Get("voice_name")
	if voiceName == "" {
		voiceName = types.DefaultVoiceName
	}
	speakingRate := types.DefaultSpeakingRate
	if raw := r.URL.Query().Get("speaking_rate"); raw != "" {
		_, _ = fmt.Sscanf(raw, "%f", &speakingRate)
	}

	// The reply must vary with the conversation, so it runs uncached; the
	// audio for a given reply text is deterministic and cache-friendly.
	v, err := h.Runner.Do(r.Context(), func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.Conversation(req.Text, req.ConversationHistory))
	})
	if err != nil {
		apology := englishApology(err)
		_ = writeJSON(w, http.StatusOK, types.CombinedReply{
			Reply:          apology,
			ContentType:    "text/plain",
			UseBrowserTTS:  true,
			FallbackText:   apology,
			ProcessingTime: time.Since(start).Seconds(),
		})
		return
	}
	reply := v.(string)

	clip := h.synthesizeCached(r.Context(), types.SpeechRequest{
		Text:         reply,
		VoiceName:    voiceName,
		LanguageCode: types.DefaultLanguageCode,
		SpeakingRate: speakingRate,
	})
	fallbackText := ""
	if clip.UseBrowserTTS {
		fallbackText = reply
	}
	_ = writeJSON(w, http.StatusOK, types.CombinedReply{
		Reply:          reply,
		AudioData:      clip.AudioData,
		ContentType:    clip.ContentType,
		UseBrowserTTS:  clip.UseBrowserTTS,
		FallbackText:   fallbackText,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

// handleTranslationProblem serves both /api/instant-translation/problem and
// its /api/eiken-translation-problem alias. With an Eiken grade the problem
// is AI-generated; anything that goes wrong falls back to the static bank.
func (h *Handler) handleTranslationProblem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	difficulty := queryDefault(q.Get("difficulty"), "all")
	category := queryDefault(q.Get("category"), "all")
	eikenLevel := strings.TrimSpace(q.Get("eiken_level"))
	longText := q.Get("long_text_mode") == "true"

	if eikenLevel != "" {
		if p, ok := h.generateEikenProblem(r.Context(), eikenLevel, category, longText); ok {
			_ = writeJSON(w, http.StatusOK, p)
			return
		}
	}
	_ = writeJSON(w, http.StatusOK, h.Problems.PickTranslation(difficulty, category, eikenLevel))
}

func (h *Handler) generateEikenProblem(ctx context.Context, eikenLevel, category string, longText bool) (types.TranslationProblem, bool) {
	categoryForAI := category
	if categoryForAI == "all" {
		categoryForAI = "general"
	}
	v, err := h.Runner.Do(ctx, func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.EikenProblem(eikenLevel, categoryForAI, longText))
	})
	if err != nil {
		return types.TranslationProblem{}, false
	}
	obj, err := gemini.ExtractJSONBlock(v.(string))
	if err != nil {
		return types.TranslationProblem{}, false
	}
	japanese, okJP := gemini.StringField(obj, "japanese")
	english, okEN := gemini.StringField(obj, "english")
	if !okJP || !okEN {
		return types.TranslationProblem{}, false
	}
	difficulty, ok := gemini.StringField(obj, "difficulty")
	if !ok {
		difficulty = eikenDifficulty(eikenLevel)
	}
	cat, ok := gemini.StringField(obj, "category")
	if !ok {
		cat = categoryForAI
	}
	return types.TranslationProblem{
		Japanese:   japanese,
		English:    english,
		Difficulty: difficulty,
		Category:   cat,
	}, true
}

func eikenDifficulty(level string) string {
	switch level {
	case "5", "4":
		return "easy"
	case "pre-1", "1":
		return "hard"
	default:
		return "medium"
	}
}

func (h *Handler) handleTranslationCheck(w http.ResponseWriter, r *http.Request) {
	var req types.TranslationCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.Runner.Do(r.Context(), func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.TranslationCheck(req.Japanese, req.CorrectAnswer, req.UserAnswer))
	})
	var res types.TranslationCheckResult
	switch {
	case err == nil:
		feedback := v.(string)
		isCorrect := containsAny(strings.ToLower(feedback), "correct", "good", "excellent", "right")
		score := 70
		if isCorrect {
			score = 100
		}
		res = types.TranslationCheckResult{
			IsCorrect:   isCorrect,
			Feedback:    feedback,
			Score:       score,
			Suggestions: []string{},
		}
	case errors.Is(err, types.ErrNotConfigured):
		// Naive literal comparison when no model is available.
		isCorrect := strings.EqualFold(strings.TrimSpace(req.UserAnswer), strings.TrimSpace(req.CorrectAnswer))
		feedback := "Close, but not quite right. Try again!"
		score := 50
		if isCorrect {
			feedback = "Good try! Keep practicing."
			score = 100
		}
		res = types.TranslationCheckResult{
			IsCorrect:   isCorrect,
			Feedback:    feedback,
			Score:       score,
			Suggestions: []string{},
		}
	default:
		res = types.TranslationCheckResult{
			Feedback:    "Sorry, I couldn't evaluate your answer properly. Please try again.",
			Score:       50,
			Suggestions: []string{},
		}
	}
	_ = writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleListeningProblem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := queryDefault(q.Get("category"), "any")
	difficulty := queryDefault(q.Get("difficulty"), "medium")
	// The _t query parameter is frontend cache busting; ignored on purpose.

	p, err := h.Trivia.FetchQuestion(r.Context(), category, difficulty)
	if err != nil {
		p = h.Problems.PickListening(difficulty)
	}
	_ = writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListeningCheck(w http.ResponseWriter, r *http.Request) {
	var req types.ListeningAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	isCorrect := strings.EqualFold(strings.TrimSpace(req.UserAnswer), strings.TrimSpace(req.CorrectAnswer))

	feedback, explanation := h.listeningFeedback(r.Context(), req, isCorrect)
	_ = writeJSON(w, http.StatusOK, types.ListeningAnswerResult{
		IsCorrect:   isCorrect,
		Feedback:    feedback,
		Explanation: explanation,
	})
}

func (h *Handler) listeningFeedback(ctx context.Context, req types.ListeningAnswerRequest, isCorrect bool) (string, string) {
	v, err := h.Runner.Do(ctx, func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.ListeningFeedback(req, isCorrect))
	})
	if err == nil {
		if obj, jsonErr := gemini.ExtractJSONBlock(v.(string)); jsonErr == nil {
			feedback, okFB := gemini.StringField(obj, "feedback")
			explanation, okEX := gemini.StringField(obj, "explanation")
			if okFB && okEX {
				return feedback, explanation
			}
		}
	}
	if errors.Is(err, types.ErrNotConfigured) {
		if isCorrect {
			return "正解です！素晴らしい！", fmt.Sprintf("答えは「%s」です。", req.CorrectAnswer)
		}
		return fmt.Sprintf("不正解です。正解は「%s」でした。", req.CorrectAnswer), "次回も頑張ってください！"
	}
	if isCorrect {
		return "正解です！よくできました。", fmt.Sprintf("答えは「%s」です。", req.CorrectAnswer)
	}
	return fmt.Sprintf("惜しい！正解は「%s」でした。", req.CorrectAnswer), "次回も頑張りましょう！"
}

func (h *Handler) handleListeningTranslate(w http.ResponseWriter, r *http.Request) {
	var req types.ListeningTranslateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.Runner.Do(r.Context(), func(ctx context.Context) (any, error) {
		return h.Gen.GenerateText(ctx, prompts.ListeningTranslation(req.Question))
	})
	var translation string
	switch {
	case err == nil:
		translation = strings.TrimSpace(v.(string))
	case errors.Is(err, types.ErrNotConfigured):
		translation = "翻訳機能は現在利用できません。"
	default:
		translation = fmt.Sprintf("問題文: %s（翻訳準備中）", req.Question)
	}
	_ = writeJSON(w, http.StatusOK, types.ListeningTranslateResult{JapaneseTranslation: translation})
}

// conversationKey derives a stable cache key from a prompt text and its
// history. Every message contributes both fields so reordered or reattributed
// histories key differently.
func conversationKey(kind, text string, history []types.Message) string {
	parts := make([]string, 0, 2+2*len(history))
	parts = append(parts, kind, text)
	for _, m := range history {
		parts = append(parts, m.Sender, m.Text)
	}
	return cache.Key(parts...)
}

func speechKey(req types.SpeechRequest) string {
	return cache.Key("tts", req.Text, req.VoiceName, fmt.Sprintf("%g", req.SpeakingRate))
}

func queryDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// decodeBody enforces POST, reads at most 1 MiB and decodes JSON into dst.
// It writes the error response itself and reports whether to continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return false
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
