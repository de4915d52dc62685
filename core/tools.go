package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aria-voice/aria-core/core/reasoners"
)

const researchToolName = "consult_crew"

// researchTool declares the research delegation tool in the catalog. The
// orchestrator intercepts calls to it by name and hands the question to the
// research backend, so the handler never runs during normal operation.
func researchTool() reasoners.Tool {
	return reasoners.NewTool(researchToolName,
		"Delegate a complex question to a research crew of specialist agents. "+
			"Use for questions that need in-depth research, comparison of sources, or multi-step analysis.",
		map[string]reasoners.ParameterBase{
			"query": {Type: "string", Description: "The full question to research"},
		},
		func(parameters struct {
			Query string `json:"query"`
		}) (string, error) {
			return "", fmt.Errorf("%s is dispatched by the orchestrator", researchToolName)
		},
		reasoners.WithRequiredParameters("query"))
}

// quickResponseTools is the built-in sub-second tool set. Every handler
// returns a ready-to-speak sentence.
func quickResponseTools(weather *weatherClient) []reasoners.Tool {
	return []reasoners.Tool{
		reasoners.NewTool("get_time", "Get the current time, optionally in a specific timezone",
			map[string]reasoners.ParameterBase{
				"timezone": {Type: "string", Description: "IANA timezone name, e.g. Europe/Zagreb. Defaults to local time"},
			},
			func(parameters struct {
				Timezone string `json:"timezone"`
			}) (string, error) {
				now := time.Now()
				if parameters.Timezone != "" {
					location, err := time.LoadLocation(parameters.Timezone)
					if err != nil {
						return "", fmt.Errorf("unknown timezone %q: %w", parameters.Timezone, err)
					}
					now = now.In(location)
				}
				return fmt.Sprintf("It's currently %s.", now.Format("3:04 PM")), nil
			}),

		reasoners.NewTool("get_weather", "Get the current weather for a location",
			map[string]reasoners.ParameterBase{
				"location": {Type: "string", Description: "City name, e.g. Zagreb"},
				"format":   {Type: "string", Description: "Temperature unit", Enum: []string{"celsius", "fahrenheit"}},
			},
			func(parameters struct {
				Location string `json:"location"`
				Format   string `json:"format"`
			}) (string, error) {
				if parameters.Location == "" {
					return "", fmt.Errorf("missing location")
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return weather.currentConditions(ctx, parameters.Location, parameters.Format)
			},
			reasoners.WithRequiredParameters("location")),

		reasoners.NewTool("calculate", "Evaluate an arithmetic expression",
			map[string]reasoners.ParameterBase{
				"expression": {Type: "string", Description: "Arithmetic expression, e.g. (2+3)*4"},
			},
			func(parameters struct {
				Expression string `json:"expression"`
			}) (string, error) {
				value, err := evaluateExpression(parameters.Expression)
				if err != nil {
					return "", fmt.Errorf("failed to evaluate %q: %w", parameters.Expression, err)
				}
				return formatNumber(value), nil
			},
			reasoners.WithRequiredParameters("expression")),

		reasoners.NewTool("confirm_action", "Confirm that an action the user requested will be carried out",
			map[string]reasoners.ParameterBase{
				"action": {Type: "string", Description: "Short description of the action being confirmed"},
			},
			func(parameters struct {
				Action string `json:"action"`
			}) (string, error) {
				if parameters.Action == "" {
					return "", fmt.Errorf("missing action")
				}
				return fmt.Sprintf("Okay, I'll %s.", strings.TrimSuffix(parameters.Action, ".")), nil
			},
			reasoners.WithRequiredParameters("action")),
	}
}

// weatherClient wraps the OpenWeather current-conditions endpoint.
type weatherClient struct {
	apiKey     string
	httpClient *http.Client
}

func newWeatherClient(apiKey string) *weatherClient {
	return &weatherClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *weatherClient) currentConditions(ctx context.Context, location, format string) (string, error) {
	if c == nil || c.apiKey == "" {
		return "", fmt.Errorf("weather service not configured")
	}

	units, unitWord := "metric", "degrees Celsius"
	if format == "fahrenheit" {
		units, unitWord = "imperial", "degrees Fahrenheit"
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("units", units)
	query.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.openweathermap.org/data/2.5/weather?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach weather service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse weather response: %w", err)
	}

	description := "clear skies"
	if len(parsed.Weather) > 0 && parsed.Weather[0].Description != "" {
		description = parsed.Weather[0].Description
	}

	return fmt.Sprintf("It's currently %.0f %s with %s in %s.",
		parsed.Main.Temp, unitWord, description, location), nil
}
