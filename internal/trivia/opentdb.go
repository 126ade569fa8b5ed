package trivia

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

// Category names the frontend uses, mapped to Open Trivia DB category ids.
// "any" (or anything unknown) means no category filter.
var categoryIDs = map[string]int{
	"general":     9,
	"books":       10,
	"film":        11,
	"music":       12,
	"television":  14,
	"science":     17,
	"computers":   18,
	"math":        19,
	"mythology":   20,
	"sports":      21,
	"geography":   22,
	"history":     23,
	"politics":    24,
	"art":         25,
	"celebrities": 26,
	"animals":     27,
	"vehicles":    28,
}

// Client fetches multiple-choice questions from the Open Trivia Database.
// The bank enforces roughly one request per five seconds per IP, so calls
// wait on a local limiter instead of getting rejected upstream.
type Client struct {
	http     *http.Client
	endpoint string
	limiter  *rate.Limiter
}

func NewClient(endpoint string, minInterval, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: endpoint,
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
}

// FetchQuestion pulls one question, decodes its RFC 3986 escaping and
// shuffles the choices. Waits on the politeness limiter first.
func (c *Client) FetchQuestion(ctx context.Context, category, difficulty string) (types.ListeningProblem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.ListeningProblem{}, types.Err(types.ErrUpstream, err, "rate limit wait")
	}

	params := url.Values{}
	params.Set("amount", "1")
	params.Set("type", "multiple")
	params.Set("difficulty", difficulty)
	params.Set("encode", "url3986")
	if id, ok := categoryIDs[category]; ok && category != "any" {
		params.Set("category", strconv.Itoa(id))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return types.ListeningProblem{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return types.ListeningProblem{}, types.Err(types.ErrUpstream, err, "")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.ListeningProblem{}, types.Err(types.ErrUpstream, err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return types.ListeningProblem{}, types.Err(types.ErrUpstream, nil, "status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return types.ListeningProblem{}, types.Err(types.ErrBadResponse, err, "decode response")
	}
	if err := checkResponseCode(out.ResponseCode); err != nil {
		return types.ListeningProblem{}, err
	}
	if len(out.Results) == 0 {
		return types.ListeningProblem{}, types.Err(types.ErrBadResponse, nil, "no questions returned")
	}

	q := out.Results[0]
	question, err := unescapeAll(q.Question)
	if err != nil {
		return types.ListeningProblem{}, err
	}
	correct, err := unescapeAll(q.CorrectAnswer)
	if err != nil {
		return types.ListeningProblem{}, err
	}
	choices := make([]string, 0, len(q.IncorrectAnswers)+1)
	choices = append(choices, correct)
	for _, a := range q.IncorrectAnswers {
		dec, err := unescapeAll(a)
		if err != nil {
			return types.ListeningProblem{}, err
		}
		choices = append(choices, dec)
	}
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return types.ListeningProblem{
		Question:      question,
		Choices:       choices,
		CorrectAnswer: correct,
		Difficulty:    q.Difficulty,
		Category:      q.Category,
	}, nil
}

// Response codes per the Open Trivia DB API contract.
func checkResponseCode(code int) error {
	switch code {
	case 0:
		return nil
	case 1:
		return types.Err(types.ErrUpstream, nil, "not enough questions for the specified criteria")
	case 2:
		return types.Err(types.ErrUpstream, nil, "invalid parameters")
	case 3:
		return types.Err(types.ErrUpstream, nil, "token not found")
	case 4:
		return types.Err(types.ErrUpstream, nil, "token exhausted")
	case 5:
		return types.Err(types.ErrUpstream, nil, "rate limit exceeded")
	default:
		return types.Err(types.ErrUpstream, nil, "unknown response code %d", code)
	}
}

func unescapeAll(s string) (string, error) {
	dec, err := url.PathUnescape(s)
	if err != nil {
		return "", types.Err(types.ErrBadResponse, err, "bad escaping in %q", s)
	}
	return dec, nil
}
