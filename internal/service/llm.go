package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/config"
	"github.com/rnkp755/chefcognito/internal/models"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the DeepSeek API
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature,omitempty"`
}

// LLMClient handles interactions with the DeepSeek API. The vision/language
// model is a black box: it accepts text prompts (optionally embedding an
// image payload) and returns free-form text that is expected, but not
// guaranteed, to contain JSON.
type LLMClient struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewLLMClient creates a new LLMClient instance
func NewLLMClient(cfg *config.Config, logger *zap.Logger) *LLMClient {
	return &LLMClient{
		apiKey: cfg.LLM.APIKey,
		apiURL: cfg.LLM.APIURL,
		model:  cfg.LLM.Model,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// Chat sends the messages to the model and returns its raw reply text.
func (c *LLMClient) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, messages, false)
}

func (c *LLMClient) complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	reqBody := Request{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// ExtractJSON locates the first balanced {...} span in the model's reply.
// The model is expected to return JSON but often wraps it in prose or
// markdown fences, so this is pattern matching, not strict parsing.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// DetectIngredients asks the model to identify ingredients in a photo.
// It never fails the caller: any error or unparseable reply degrades to a
// generic single-item detection.
func (c *LLMClient) DetectIngredients(ctx context.Context, imageB64 string) []models.Ingredient {
	messages := []Message{
		{
			Role: models.RoleSystem,
			Content: `You are a food recognition expert. Identify every ingredient visible in the photo. Respond in JSON:
{
    "ingredients": [
        {"name": "tomato", "quantity": "3 medium", "confidence": 0.95}
    ]
}
Confidence must be a number between 0 and 1.`,
		},
		{
			Role:    models.RoleUser,
			Content: "Identify the ingredients in this photo.\n\n[image/jpeg;base64] " + imageB64,
		},
	}

	reply, err := c.complete(ctx, messages, true)
	if err != nil {
		c.logger.Error("ingredient detection failed", zap.Error(err))
		return FallbackDetection()
	}

	span, ok := ExtractJSON(reply)
	if !ok {
		c.logger.Warn("no JSON in detection reply", zap.String("reply", reply))
		return FallbackDetection()
	}

	var parsed struct {
		Ingredients []models.Ingredient `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil || len(parsed.Ingredients) == 0 {
		c.logger.Warn("unparseable detection reply", zap.String("reply", reply))
		return FallbackDetection()
	}

	return parsed.Ingredients
}

// FallbackDetection is the fixed result returned when the vision model
// gives nothing usable.
func FallbackDetection() []models.Ingredient {
	return []models.Ingredient{
		{Name: "mixed ingredients", Quantity: "1 batch", Confidence: 0.5},
	}
}

// GeneratedRecipes is the model's answer to a generation request.
type GeneratedRecipes struct {
	Basic    []models.RecipePayload `json:"basic_recipes"`
	Advanced []models.RecipePayload `json:"advanced_recipes"`
}

// GenerateRecipes asks the model for basic and advanced recipes from the
// detected ingredients, honoring the user's preferences. It never fails the
// caller: any error or unparseable reply degrades to the fixed stir-fry
// fallback built from the input ingredients.
func (c *LLMClient) GenerateRecipes(ctx context.Context, ingredients []models.Ingredient, prefs *models.Preferences) *GeneratedRecipes {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Quantity != "" {
			names = append(names, fmt.Sprintf("%s (%s)", ing.Name, ing.Quantity))
		} else {
			names = append(names, ing.Name)
		}
	}

	prompt := "Generate recipes using these ingredients: " + strings.Join(names, ", ")
	if prefs != nil {
		if len(prefs.DietaryRestrictions) > 0 {
			prompt += ". The recipes must be suitable for: " + strings.Join(prefs.DietaryRestrictions, ", ")
		}
		if len(prefs.Allergies) > 0 {
			prompt += ". Strictly avoid: " + strings.Join(prefs.Allergies, ", ")
		}
		if prefs.SkillLevel != "" {
			prompt += ". The cook's skill level is " + prefs.SkillLevel
		}
	}

	messages := []Message{
		{
			Role: models.RoleSystem,
			Content: `You are a professional chef. Provide your response in JSON format with the following structure:
{
    "basic_recipes": [
        {
            "name": "Recipe name",
            "description": "Brief description",
            "cooking_time": "30 minutes",
            "difficulty": "Easy/Medium/Hard",
            "servings": 2,
            "ingredients": [
                {"name": "egg", "quantity": "2", "available": true, "substitute": ""}
            ],
            "equipment": ["pan"],
            "steps": ["Step 1: ..."],
            "tips": ["..."],
            "nutrition_notes": "..."
        }
    ],
    "advanced_recipes": [ ... same structure ... ]
}
Basic recipes use only the listed ingredients plus pantry staples; advanced recipes may add a few extra ingredients, marked available=false with a substitute.`,
		},
		{
			Role:    models.RoleUser,
			Content: prompt,
		},
	}

	reply, err := c.complete(ctx, messages, true)
	if err != nil {
		c.logger.Error("recipe generation failed", zap.Error(err))
		return FallbackRecipes(ingredients)
	}

	span, ok := ExtractJSON(reply)
	if !ok {
		c.logger.Warn("no JSON in generation reply", zap.String("reply", reply))
		return FallbackRecipes(ingredients)
	}

	var parsed GeneratedRecipes
	if err := json.Unmarshal([]byte(span), &parsed); err != nil || len(parsed.Basic)+len(parsed.Advanced) == 0 {
		c.logger.Warn("unparseable generation reply", zap.String("reply", reply))
		return FallbackRecipes(ingredients)
	}

	return &parsed
}

// FallbackRecipes is the fixed generation result: a generic stir fry using
// exactly the input ingredients, each marked available.
func FallbackRecipes(ingredients []models.Ingredient) *GeneratedRecipes {
	recipeIngredients := make(models.RecipeIngredientList, 0, len(ingredients))
	for _, ing := range ingredients {
		recipeIngredients = append(recipeIngredients, models.RecipeIngredient{
			Name:      ing.Name,
			Quantity:  ing.Quantity,
			Available: true,
		})
	}

	return &GeneratedRecipes{
		Basic: []models.RecipePayload{
			{
				Name:        "Simple Stir Fry",
				Description: "A quick stir fry using your available ingredients.",
				CookingTime: "20 minutes",
				Difficulty:  "Easy",
				Servings:    2,
				Ingredients: recipeIngredients,
				Equipment:   models.StringArray{"wok or large pan", "spatula"},
				Steps: models.StringArray{
					"Heat oil in a wok over high heat.",
					"Add the firmest ingredients first and stir fry for 3-4 minutes.",
					"Add the remaining ingredients and cook for another 3-4 minutes.",
					"Season with salt, pepper and soy sauce to taste, then serve.",
				},
				Tips:           models.StringArray{"Cut everything to a similar size so it cooks evenly."},
				NutritionNotes: "Varies with ingredients used.",
			},
		},
		Advanced: []models.RecipePayload{},
	}
}

// Summarize asks the model to compress a conversation transcript.
func (c *LLMClient) Summarize(ctx context.Context, transcript string) (string, error) {
	messages := []Message{
		{
			Role:    models.RoleSystem,
			Content: "You summarize cooking conversations. In at most three sentences, capture the dishes discussed, the ingredients involved and any stated preferences. Respond with plain text only.",
		},
		{
			Role:    models.RoleUser,
			Content: transcript,
		},
	}
	return c.complete(ctx, messages, false)
}
