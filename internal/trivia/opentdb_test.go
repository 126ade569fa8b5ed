package trivia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// Zero interval: no politeness wait in tests.
	return NewClient(srv.URL, 0, 5*time.Second)
}

func encodedPayload() map[string]any {
	esc := url.PathEscape
	return map[string]any{
		"response_code": 0,
		"results": []any{map[string]any{
			"question":          esc("What is the capital of Japan?"),
			"correct_answer":    esc("Tokyo"),
			"incorrect_answers": []string{esc("Osaka"), esc("Kyoto"), esc("Hiroshima")},
			"difficulty":        "easy",
			"category":          "Geography",
		}},
	}
}

func TestFetchQuestion(t *testing.T) {
	var gotQuery url.Values
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(encodedPayload())
	})

	p, err := cli.FetchQuestion(context.Background(), "geography", "easy")
	require.NoError(t, err)

	assert.Equal(t, "What is the capital of Japan?", p.Question)
	assert.Equal(t, "Tokyo", p.CorrectAnswer)
	assert.Len(t, p.Choices, 4)
	assert.Contains(t, p.Choices, "Tokyo")
	assert.Contains(t, p.Choices, "Osaka")
	assert.Equal(t, "easy", p.Difficulty)

	assert.Equal(t, "1", gotQuery.Get("amount"))
	assert.Equal(t, "multiple", gotQuery.Get("type"))
	assert.Equal(t, "easy", gotQuery.Get("difficulty"))
	assert.Equal(t, "url3986", gotQuery.Get("encode"))
	assert.Equal(t, "22", gotQuery.Get("category"))
}

func TestFetchQuestionAnyCategoryOmitsFilter(t *testing.T) {
	var gotQuery url.Values
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(encodedPayload())
	})

	_, err := cli.FetchQuestion(context.Background(), "any", "medium")
	require.NoError(t, err)
	assert.Empty(t, gotQuery.Get("category"))
}

func TestFetchQuestionResponseCodeErrors(t *testing.T) {
	for code := 1; code <= 6; code++ {
		cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"response_code": code, "results": []any{}})
		})
		_, err := cli.FetchQuestion(context.Background(), "any", "medium")
		assert.ErrorIs(t, err, types.ErrUpstream, "response_code %d", code)
	}
}

func TestFetchQuestionEmptyResults(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response_code": 0, "results": []any{}})
	})
	_, err := cli.FetchQuestion(context.Background(), "any", "medium")
	assert.ErrorIs(t, err, types.ErrBadResponse)
}

func TestFetchQuestionUpstreamDown(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := cli.FetchQuestion(context.Background(), "any", "medium")
	assert.ErrorIs(t, err, types.ErrUpstream)
}

func TestLimiterHonorsContextCancel(t *testing.T) {
	// One token per hour: the second call must block, then fail on cancel.
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(encodedPayload())
	})
	cli.limiter.SetLimit(1.0 / 3600)

	_, err := cli.FetchQuestion(context.Background(), "any", "easy")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cli.FetchQuestion(ctx, "any", "easy")
	assert.ErrorIs(t, err, types.ErrUpstream)
}
