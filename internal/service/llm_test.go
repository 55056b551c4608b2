package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/config"
	"github.com/rnkp755/chefcognito/internal/models"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.APIURL = server.URL
	cfg.LLM.Model = "test-model"
	return NewLLMClient(cfg, zap.NewNop())
}

func modelReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"wrapped in prose", "Sure! Here you go: {\"a\":1} hope that helps", `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`, true},
		{"braces inside string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote", `{"a":"say \"hi\" {now}"}`, `{"a":"say \"hi\" {now}"}`, true},
		{"no json", "just some text", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSON(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestChatReturnsReply(t *testing.T) {
	llm := newTestLLM(t, modelReply("hello there"))

	reply, err := llm.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestChatPropagatesAPIError(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := llm.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}

func TestDetectIngredientsParsesReply(t *testing.T) {
	llm := newTestLLM(t, modelReply(`The photo shows: {"ingredients":[{"name":"tomato","quantity":"3 medium","confidence":0.95}]}`))

	ingredients := llm.DetectIngredients(context.Background(), "aW1hZ2U=")
	require.Len(t, ingredients, 1)
	assert.Equal(t, "tomato", ingredients[0].Name)
	assert.InDelta(t, 0.95, ingredients[0].Confidence, 0.001)
}

func TestDetectIngredientsFallsBackOnGarbage(t *testing.T) {
	llm := newTestLLM(t, modelReply("I cannot see any food here, sorry!"))

	ingredients := llm.DetectIngredients(context.Background(), "aW1hZ2U=")
	require.Len(t, ingredients, 1)
	assert.Equal(t, "mixed ingredients", ingredients[0].Name)
	assert.Equal(t, "1 batch", ingredients[0].Quantity)
	assert.InDelta(t, 0.5, ingredients[0].Confidence, 0.001)
}

func TestGenerateRecipesFallsBackToStirFry(t *testing.T) {
	llm := newTestLLM(t, modelReply("```\nnot json at all"))

	input := []models.Ingredient{{Name: "egg", Quantity: "2", Confidence: 0.9}}
	generated := llm.GenerateRecipes(context.Background(), input, nil)

	require.Len(t, generated.Basic, 1)
	assert.Empty(t, generated.Advanced)

	recipe := generated.Basic[0]
	assert.Equal(t, "Simple Stir Fry", recipe.Name)
	require.Len(t, recipe.Ingredients, 1)
	assert.Equal(t, "egg", recipe.Ingredients[0].Name)
	assert.Equal(t, "2", recipe.Ingredients[0].Quantity)
	assert.True(t, recipe.Ingredients[0].Available)
}

func TestGenerateRecipesFallsBackOnServerError(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	input := []models.Ingredient{{Name: "rice", Quantity: "1 cup"}}
	generated := llm.GenerateRecipes(context.Background(), input, nil)

	require.Len(t, generated.Basic, 1)
	assert.Equal(t, "Simple Stir Fry", generated.Basic[0].Name)
}

func TestGenerateRecipesParsesReply(t *testing.T) {
	llm := newTestLLM(t, modelReply(`{"basic_recipes":[{"name":"Omelette","description":"Eggs","cooking_time":"10 minutes","difficulty":"Easy","servings":1,"ingredients":[{"name":"egg","quantity":"2","available":true}],"equipment":["pan"],"steps":["beat","cook"]}],"advanced_recipes":[]}`))

	input := []models.Ingredient{{Name: "egg", Quantity: "2"}}
	generated := llm.GenerateRecipes(context.Background(), input, nil)

	require.Len(t, generated.Basic, 1)
	assert.Equal(t, "Omelette", generated.Basic[0].Name)
}
