package gemini

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// The models are asked to answer with a JSON object but routinely wrap it in
// prose or a markdown fence. ExtractJSONBlock pulls the outermost object out
// of the text and decodes it.
func ExtractJSONBlock(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, types.Err(types.ErrBadResponse, nil, "no JSON object in model output")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &m); err != nil {
		return nil, types.Err(types.ErrBadResponse, err, "decode model JSON")
	}
	return m, nil
}

// StringField evaluates a JMESPath expression against decoded model output
// and coerces the result to a string. Missing or null selections report false.
func StringField(payload map[string]any, expression string) (string, bool) {
	v, err := jmespath.Search(expression, payload)
	if err != nil || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	default:
		b, _ := json.Marshal(t)
		return string(b), true
	}
}
