package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultTemperature = 0.2
	defaultTimeout     = 90 * time.Second
	defaultCurrency    = "NGN"
)

// Config describes how the OpenAI client should be initialised.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client offers a thin wrapper around the OpenAI Chat Completions API.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

// FetchOptions control per-request overrides.
type FetchOptions struct {
	ModelOverride string
	// Currency is the ISO code prices should be quoted in.
	Currency string
	// Region narrows the survey, for example "Lagos, Nigeria".
	Region string
}

// PriceQuote is one normalised market price returned by the model. PriceCents
// is the price of one Unit in minor currency units.
type PriceQuote struct {
	IngredientName string
	PriceCents     int64
	Unit           string
	Summary        string
	Sources        []string
}

// NewClient builds a Client for the chat completions endpoint.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("ai: api key must not be empty")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temp,
		httpClient:  httpClient,
	}, nil
}

// FetchMarketPrices asks the model for current market prices of every name in
// a single request. Entries without a usable price are dropped.
func (c *Client) FetchMarketPrices(ctx context.Context, names []string, opts FetchOptions) ([]PriceQuote, error) {
	requested := uniqueNames(names)
	if len(requested) == 0 {
		return nil, errors.New("ai: at least one ingredient name is required")
	}

	payload := map[string]any{
		"model":       c.effectiveModel(opts),
		"temperature": c.temperature,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a catering procurement analyst. Report current wholesale market prices as JSON only.",
			},
			{
				"role":    "user",
				"content": buildPricePrompt(requested, opts),
			},
		},
	}

	content, err := c.performChatCompletion(ctx, payload)
	if err != nil {
		return nil, err
	}

	var parsed aiPriceResponse
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ai: parse JSON payload: %w", err)
	}

	return normalisePrices(parsed), nil
}

func (c *Client) effectiveModel(opts FetchOptions) string {
	model := strings.TrimSpace(opts.ModelOverride)
	if model != "" {
		return model
	}
	return c.model
}

func buildPricePrompt(names []string, opts FetchOptions) string {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "the local wholesale market"
	}

	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}

	return fmt.Sprintf(`Survey current prices in %s for these ingredients: [%s]. Quote prices in %s.
Return JSON:
{
  "prices": [
    {
      "ingredient_name": string (exactly as requested),
      "price": number (price of one unit in %s major units, e.g. 1250.50),
      "unit": string (kg, g, l, ml, pcs, ...),
      "summary": short string describing the source market and date,
      "sources": string[] (URLs or publication names)
    }
  ]
}
Strict rules: respond with raw JSON, no Markdown, no comments. Omit ingredients you cannot price.`, region, strings.Join(quoted, ", "), currency, currency)
}

type aiPriceResponse struct {
	Prices []aiPriceEntry `json:"prices"`
}

type aiPriceEntry struct {
	IngredientName string `json:"ingredient_name"`
	Price          any    `json:"price"`
	Unit           string `json:"unit"`
	Summary        string `json:"summary"`
	Sources        any    `json:"sources"`
}

func normalisePrices(resp aiPriceResponse) []PriceQuote {
	quotes := make([]PriceQuote, 0, len(resp.Prices))
	for _, entry := range resp.Prices {
		name := normaliseText(entry.IngredientName)
		if name == "" {
			continue
		}
		price, ok := parseMoney(entry.Price)
		if !ok || price.Sign() <= 0 {
			continue
		}
		quotes = append(quotes, PriceQuote{
			IngredientName: name,
			PriceCents:     price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Unit:           strings.ToLower(normaliseValue(entry.Unit)),
			Summary:        normaliseText(entry.Summary),
			Sources:        sanitiseList(entry.Sources),
		})
	}
	return quotes
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

func normaliseValue(value string) string {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "n/a", "na", "none", "unknown":
		return ""
	default:
		return value
	}
}

func normaliseText(value string) string {
	value = normaliseValue(value)
	if value == "" {
		return ""
	}
	return strings.Join(strings.Fields(value), " ")
}

// parseMoney accepts numbers and strings such as "₦1,250.50 per kg".
func parseMoney(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, false
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		return parsed, err == nil
	case string:
		return parseFirstNumber(v)
	default:
		return decimal.Decimal{}, false
	}
}

func parseFirstNumber(value string) (decimal.Decimal, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return decimal.Decimal{}, false
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Decimal{}, false
	}
	parsed, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return parsed, true
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

func sanitiseList(raw any) []string {
	unique := make(map[string]struct{})
	result := []string{}

	add := func(value string) {
		value = normaliseValue(value)
		if value == "" {
			return
		}
		key := strings.ToLower(value)
		if _, ok := unique[key]; ok {
			return
		}
		unique[key] = struct{}{}
		result = append(result, value)
	}

	switch values := raw.(type) {
	case []any:
		for _, entry := range values {
			if s, ok := entry.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, entry := range values {
			add(entry)
		}
	case string:
		for _, part := range strings.Split(values, ",") {
			add(part)
		}
	}

	return result
}

func (c *Client) performChatCompletion(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ai: openai returned status %s", resp.Status)
	}

	var responseData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&responseData); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}

	if len(responseData.Choices) == 0 {
		return "", errors.New("ai: openai returned no choices")
	}

	return stripFences(responseData.Choices[0].Message.Content), nil
}

// stripFences removes a Markdown code fence wrapped around the payload.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.Trim(content, "`")
	content = strings.TrimSpace(content)
	if strings.HasPrefix(strings.ToLower(content), "json") {
		content = content[len("json"):]
	}
	return strings.TrimSpace(content)
}
