// Package prompts builds the prompt strings sent to the conversation model.
// The wording is tuned for Japanese learners of English and is part of the
// product behavior; change it deliberately.
package prompts

import (
	"fmt"
	"strings"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

const (
	// Cap the history included in a prompt to keep token usage bounded.
	conversationHistoryWindow = 10
	consultationHistoryWindow = 8
)

func historyContext(header string, history []types.Message, window int) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, m := range history {
		sender := m.Sender
		if sender == "" {
			sender = "Unknown"
		}
		fmt.Fprintf(&sb, "%s: %s\n", sender, m.Text)
	}
	sb.WriteString("\n")
	return sb.String()
}

// Conversation builds the prompt for a conversation-practice reply.
func Conversation(userText string, history []types.Message) string {
	return fmt.Sprintf(`
You are an expert English teacher and conversation partner specializing in helping Japanese learners.

IMPORTANT GUIDELINES:
- Always be encouraging and supportive
- Use natural, conversational English
- Provide gentle corrections when needed
- Ask follow-up questions to keep the conversation flowing
- Use examples and explanations when helpful
- Reference previous parts of the conversation when relevant
- Keep responses concise and engaging (1-3 sentences)
- Focus on practical, everyday English
%s
CURRENT MESSAGE FROM STUDENT:
"%s"

Please respond naturally as a friendly English teacher and conversation partner.
`, historyContext("CONVERSATION HISTORY (for context):", history, conversationHistoryWindow), userText)
}

// Welcome builds the prompt for the greeting shown to a new student.
func Welcome() string {
	return `
You are an expert English teacher and conversation partner specializing in helping Japanese learners.

Please create a warm, encouraging welcome message for a new student starting English conversation practice.

GUIDELINES:
- Keep it friendly and encouraging
- Mention that you're here to help with English conversation
- Invite them to start practicing by asking a question or sharing something about themselves
- Keep it concise (2-3 sentences)
- Use clear, natural English

Please respond with a welcoming message to get the conversation started.
`
}

// Consultation builds the prompt for grammar/expression questions answered
// in Japanese.
func Consultation(userText string, history []types.Message) string {
	return fmt.Sprintf(`
あなたは日本人の英語学習者を専門とする、経験豊富で親切な英語教師です。

【重要な指示】:
- 必ず日本語で回答してください
- 簡潔で分かりやすい説明を心がけてください（2-3文程度）
- 1つの具体的な例文を含めてください
- 一目で読める短さにしてください
- 要点だけを簡潔に答えてください
%s
【学習者からの質問】:
"%s"

上記の質問に対して、日本語で簡潔に回答してください。例文は1つだけ、説明は2-3文以内でお願いします。
`, historyContext("相談履歴（参考情報）:", history, consultationHistoryWindow), userText)
}

// TranslationCheck builds the prompt that grades an instant-translation
// attempt against the expected answer.
func TranslationCheck(japanese, correctAnswer, userAnswer string) string {
	return fmt.Sprintf(`
あなたは経験豊富な英語教師です。日本人学習者の瞬間英作文の回答を評価してください。

【問題】
日本語: "%s"
正解: "%s"
学習者の回答: "%s"

【評価基準】
- 意味が正確に伝わっているか
- 文法が正しいか
- 自然な英語表現か
- 語彙の選択が適切か

【返答形式】
以下の形式で評価してください：
- 「Excellent!」「Good!」「Not quite right」のいずれかで始める
- 具体的な改善点やアドバイスを含める
- 励ましの言葉を含める
- 2-3文で簡潔にまとめる

日本人学習者にとって理解しやすく、学習意欲を高めるような評価をお願いします。
`, japanese, correctAnswer, userAnswer)
}

type eikenTraits struct {
	description string
	grammar     string
	vocabulary  string
	structure   string
	examples    []string
}

// Eiken grade characteristics, keyed by the grade names the frontend sends.
var eikenCharacteristics = map[string]eikenTraits{
	"5": {
		description: "英検5級 (中学初級レベル)",
		grammar:     "現在形、過去形、be動詞、一般動詞の基本形",
		vocabulary:  "中学1年生レベルの基本語彙 (約600語)",
		structure:   "シンプルな単文中心",
		examples:    []string{"I am a student.", "I go to school.", "It is sunny today."},
	},
	"4": {
		description: "英検4級 (中学中級レベル)",
		grammar:     "助動詞 (can, will, must)、未来形、進行形",
		vocabulary:  "中学2年生レベルの語彙 (約1300語)",
		structure:   "助動詞を含む文、疑問文・否定文",
		examples:    []string{"I can play tennis.", "Will you help me?", "She is reading a book."},
	},
	"3": {
		description: "英検3級 (中学卒業レベル)",
		grammar:     "受動態、現在完了、不定詞、動名詞",
		vocabulary:  "中学3年生レベルの語彙 (約2100語)",
		structure:   "複文構造、接続詞を使った文",
		examples:    []string{"This book was written by him.", "I have been to Tokyo.", "I want to learn English."},
	},
	"pre-2": {
		description: "英検準2級 (高校中級レベル)",
		grammar:     "関係代名詞、仮定法の基本、分詞",
		vocabulary:  "高校基礎レベルの語彙 (約3600語)",
		structure:   "関係詞を使った複文、より複雑な構造",
		examples:    []string{"The man who is standing there is my teacher.", "If I were you, I would study harder."},
	},
	"2": {
		description: "英検2級 (高校卒業レベル)",
		grammar:     "仮定法、複雑な時制、高度な文型",
		vocabulary:  "高校卒業レベルの語彙 (約5100語)",
		structure:   "複雑な複文、論理的な文構造",
		examples:    []string{"If I had studied harder, I could have passed the exam.", "Having finished my homework, I went to bed."},
	},
	"pre-1": {
		description: "英検準1級 (大学中級レベル)",
		grammar:     "高度な文法構造、論理的表現",
		vocabulary:  "大学中級レベルの語彙 (約7500語)",
		structure:   "学術的・ビジネス的表現",
		examples:    []string{"The proposal is likely to be implemented next year.", "It is essential that we address this issue promptly."},
	},
	"1": {
		description: "英検1級 (大学上級レベル)",
		grammar:     "最高レベルの文法、慣用表現",
		vocabulary:  "大学上級レベルの語彙 (約10000-15000語)",
		structure:   "高度な論理構造、専門的表現",
		examples:    []string{"The ramifications of this decision could be far-reaching.", "Notwithstanding the challenges, we must persevere."},
	},
}

var categoryTopics = map[string][]string{
	"daily_life": {"家族", "食事", "買い物", "趣味", "天気"},
	"work":       {"仕事", "会議", "プロジェクト", "同僚", "スケジュール"},
	"travel":     {"旅行", "交通", "宿泊", "観光", "文化"},
	"education":  {"学校", "勉強", "試験", "図書館", "授業"},
	"health":     {"健康", "病気", "運動", "食事", "病院"},
	"technology": {"コンピューター", "スマートフォン", "インターネット", "アプリ", "SNS"},
	"general":    {"一般的な話題", "日常的な表現", "基本的な会話"},
}

// EikenProblem builds the prompt that asks the model to generate one
// instant-translation problem pitched at an Eiken grade, as a JSON object.
// Unknown grades fall back to grade 3; unknown categories to general topics.
func EikenProblem(eikenLevel, category string, longTextMode bool) string {
	traits, ok := eikenCharacteristics[eikenLevel]
	if !ok {
		traits = eikenCharacteristics["3"]
	}
	topics, ok := categoryTopics[category]
	if !ok {
		topics = categoryTopics["general"]
	}

	lengthRule := "短い1文のみで構成する（デフォルト）"
	count := "1つの"
	if longTextMode {
		lengthRule = "複数文で構成する（長文モード）"
		count = "2-3文からなる"
	}

	return fmt.Sprintf(`
あなたは英検対策の専門家です。以下の条件に従って瞬間英作文の問題を1つ作成してください。

【対象レベル】
%s

【文法レベル】
%s

【語彙レベル】
%s

【文構造】
%s

【参考例文】
%s

【問題カテゴリ】
%s - トピック例: %s

【作成条件】
1. 指定された英検レベルに適した語彙・文法のみを使用
2. 日本人学習者にとって実用性の高い表現
3. 自然で適切な英語表現
4. 指定されたカテゴリに関連する内容
5. %s

【出力形式】
以下のJSON形式で出力してください：
{
    "japanese": "日本語の文章",
    "english": "対応する英語の文章",
    "difficulty": "easy/medium/hard",
    "category": "カテゴリ名"
}

%s問題を作成してください。
`, traits.description, traits.grammar, traits.vocabulary, traits.structure,
		strings.Join(traits.examples, ", "), category, strings.Join(topics, ", "),
		lengthRule, count)
}

// ListeningFeedback builds the prompt that produces feedback and an
// explanation for a listening answer, as a JSON object.
func ListeningFeedback(req types.ListeningAnswerRequest, isCorrect bool) string {
	verdict := "不正解"
	if isCorrect {
		verdict = "正解"
	}
	return fmt.Sprintf(`
あなたは英語学習者向けのリスニング問題チューターです。
以下のリスニング問題の回答について、励ましとともにフィードバックを提供してください。

問題: %s
選択肢: %s
正解: %s
ユーザーの回答: %s
正解判定: %s

フィードバックは以下の要素を含めてください：
1. 正解・不正解の判定
2. 正解の理由や背景知識
3. 学習者への励ましの言葉
4. 日本語で100文字以内

回答形式：JSON
{
    "feedback": "フィードバック文",
    "explanation": "解説文"
}
`, req.Question, strings.Join(req.Choices, ", "), req.CorrectAnswer, req.UserAnswer, verdict)
}

// ListeningTranslation builds the prompt that translates a question into
// natural Japanese.
func ListeningTranslation(question string) string {
	return fmt.Sprintf(`
あなたは英語から日本語への翻訳の専門家です。
以下の英語の問題文を自然で理解しやすい日本語に翻訳してください。

英語の問題文: %s

翻訳の要件:
1. 自然で読みやすい日本語
2. 問題の意味を正確に伝える
3. 日本語学習者にとって理解しやすい表現
4. 1つの完結した文章で回答

回答形式: 翻訳された日本語のみを返してください。
`, question)
}
