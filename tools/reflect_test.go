package tools

import (
	"context"
	"testing"

	"github.com/voocel/mas/schema"
)

type weatherArgs struct {
	City  string `json:"city" description:"City name"`
	Units string `json:"units,omitempty" enum:"celsius,fahrenheit"`
}

type weatherService struct{}

func (weatherService) GetForecast(ctx context.Context, args weatherArgs) (string, error) {
	if args.Units == "fahrenheit" {
		return args.City + ": 72F", nil
	}
	return args.City + ": 22C", nil
}

func (weatherService) DescribeTool(method string) (name, description, group string) {
	if method == "GetForecast" {
		return "get_forecast", "Look up the forecast for a city.", "weather"
	}
	return "", "", ""
}

func TestRegisterFromObjectRegistersMethodAsTool(t *testing.T) {
	r := New()
	if err := RegisterFromObject(r, weatherService{}, "default"); err != nil {
		t.Fatalf("RegisterFromObject: %v", err)
	}

	tool, ok := r.byName["get_forecast"]
	if !ok {
		t.Fatalf("expected a tool named get_forecast, got %v", r.order)
	}
	if tool.Group() != "weather" {
		t.Fatalf("expected Describer's group override, got %q", tool.Group())
	}

	props := tool.Schema()["properties"].(map[string]any)
	if _, ok := props["city"]; !ok {
		t.Fatalf("expected a city property, got %v", props)
	}
	required := tool.Schema()["required"].([]string)
	if len(required) != 1 || required[0] != "city" {
		t.Fatalf("expected only city to be required, got %v", required)
	}

	resultCh, err := tool.Invoke(context.Background(), schema.ToolUse{
		ID:    "t1",
		Name:  "get_forecast",
		Input: map[string]any{"city": "Paris", "units": "fahrenheit"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	result := <-resultCh
	if result.IsError {
		t.Fatalf("unexpected tool error result: %+v", result)
	}
	text := result.Output[0].Text
	if text != "Paris: 72F" {
		t.Fatalf("got %q", text)
	}
}

type undescribedService struct{}

func (undescribedService) LookupCity(ctx context.Context, args weatherArgs) (string, error) {
	return args.City, nil
}

func TestRegisterFromObjectFallsBackToSnakeCaseName(t *testing.T) {
	r := New()
	if err := RegisterFromObject(r, undescribedService{}, "default"); err != nil {
		t.Fatalf("RegisterFromObject: %v", err)
	}
	tool, ok := r.byName["lookup_city"]
	if !ok {
		t.Fatalf("expected snake_cased method name lookup_city, got %v", r.order)
	}
	if tool.Group() != "default" {
		t.Fatalf("expected fallback to the passed-in group, got %q", tool.Group())
	}
	if tool.Description() != "" {
		t.Fatalf("expected empty description with no Describer, got %q", tool.Description())
	}
}
