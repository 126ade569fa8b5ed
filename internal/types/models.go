package types

// Wire models for the JSON API. Field names match what the web frontend
// already sends and expects; the instant-translation endpoints use camelCase
// for historical reasons, everything else is snake_case.

// Message is one turn of a conversation, as kept by the frontend.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ConversationRequest is the body of /api/respond and /api/respond-with-audio.
type ConversationRequest struct {
	Text                string    `json:"text"`
	ConversationHistory []Message `json:"conversation_history"`
	EnableGrammarCheck  bool      `json:"enable_grammar_check"`
}

// ConsultationRequest is the body of /api/japanese-consultation.
type ConsultationRequest struct {
	Text                string    `json:"text"`
	ConversationHistory []Message `json:"conversation_history"`
}

// Reply carries a single AI-generated response text.
type Reply struct {
	Reply string `json:"reply"`
}

// SpeechRequest is the body of /api/tts.
type SpeechRequest struct {
	Text         string  `json:"text"`
	VoiceName    string  `json:"voice_name"`
	LanguageCode string  `json:"language_code"`
	SpeakingRate float64 `json:"speaking_rate"`
}

const (
	DefaultVoiceName    = "Kore"
	DefaultLanguageCode = "en-US"
	DefaultSpeakingRate = 1.0
)

// ApplyDefaults fills zero-valued fields the frontend may omit.
func (r *SpeechRequest) ApplyDefaults() {
	if r.VoiceName == "" {
		r.VoiceName = DefaultVoiceName
	}
	if r.LanguageCode == "" {
		r.LanguageCode = DefaultLanguageCode
	}
	if r.SpeakingRate == 0 {
		r.SpeakingRate = DefaultSpeakingRate
	}
}

// SpeechClip is the result of a synthesis call. On upstream failure the
// fallback shape sets UseBrowserTTS so the frontend renders speech locally;
// the HTTP status stays 200 either way.
type SpeechClip struct {
	AudioData     string `json:"audio_data"`
	ContentType   string `json:"content_type"`
	OriginalSize  int    `json:"original_size,omitempty"`
	FallbackText  string `json:"fallback_text,omitempty"`
	UseBrowserTTS bool   `json:"use_browser_tts,omitempty"`
	Error         string `json:"error,omitempty"`
}

// CombinedReply bundles a conversation reply with its synthesized audio.
type CombinedReply struct {
	Reply          string  `json:"reply"`
	AudioData      string  `json:"audio_data"`
	ContentType    string  `json:"content_type"`
	UseBrowserTTS  bool    `json:"use_browser_tts"`
	FallbackText   string  `json:"fallback_text"`
	ProcessingTime float64 `json:"processing_time"`
}

// Status reports which upstreams are usable, for troubleshooting.
type Status struct {
	GeminiConfigured    bool `json:"gemini_configured"`
	GeminiTTSConfigured bool `json:"gemini_tts_configured"`
	TTSConfigured       bool `json:"tts_configured"`
}

// TranslationProblem is one instant-translation exercise.
type TranslationProblem struct {
	Japanese   string `json:"japanese" yaml:"japanese"`
	English    string `json:"english" yaml:"english"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
	Category   string `json:"category" yaml:"category"`
}

// TranslationCheckRequest is the body of /api/instant-translation/check.
type TranslationCheckRequest struct {
	Japanese      string `json:"japanese"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer"`
}

// TranslationCheckResult grades a user's translation attempt.
type TranslationCheckResult struct {
	IsCorrect   bool     `json:"isCorrect"`
	Feedback    string   `json:"feedback"`
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// ListeningProblem is a multiple-choice listening exercise, either fetched
// from the trivia upstream or served from the built-in fallback set.
type ListeningProblem struct {
	Question      string   `json:"question" yaml:"question"`
	Choices       []string `json:"choices" yaml:"choices"`
	CorrectAnswer string   `json:"correct_answer" yaml:"correct_answer"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	Category      string   `json:"category" yaml:"category"`
	Explanation   string   `json:"explanation" yaml:"explanation,omitempty"`
}

// ListeningAnswerRequest is the body of /api/listening/check.
type ListeningAnswerRequest struct {
	Question      string   `json:"question"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Choices       []string `json:"choices"`
}

// ListeningAnswerResult grades a listening answer.
type ListeningAnswerResult struct {
	IsCorrect   bool   `json:"is_correct"`
	Feedback    string `json:"feedback"`
	Explanation string `json:"explanation"`
}

// ListeningTranslateRequest is the body of /api/listening/translate.
type ListeningTranslateRequest struct {
	Question string `json:"question"`
}

// ListeningTranslateResult carries the Japanese rendering of a question.
type ListeningTranslateResult struct {
	JapaneseTranslation string `json:"japanese_translation"`
}
