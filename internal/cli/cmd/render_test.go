package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AmrElDessouki22/popcorn-ai/internal/cli/api"
	"github.com/AmrElDessouki22/popcorn-ai/internal/model"
)

func TestPrintTurn(t *testing.T) {
	var buf bytes.Buffer
	printTurn(&buf, &api.ChatTurn{
		Message: "I found 2 products.",
		RichContent: model.NewProductCarousel([]model.ProductSummary{
			{ID: "3", Name: "Arabica Blend", Price: 14, Category: "Premium Coffee", InStock: true, Description: "Smooth everyday espresso", Tags: []string{"coffee", "espresso"}},
			{ID: "4", Name: "Noise Cancelling Headphones", Price: 199, Category: "Technology", InStock: false},
		}),
	})

	out := buf.String()
	for _, want := range []string{"I found 2 products.", "#3 Arabica Blend  $14.00", "有货", "缺货", "coffee, espresso", "Smooth everyday espresso"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTurn_Buttons(t *testing.T) {
	var buf bytes.Buffer
	printTurn(&buf, &api.ChatTurn{
		Message:     "Anything else?",
		RichContent: model.NewActionButtons([]model.ActionButton{{Label: "Show more", Action: "search"}}),
	})
	if !strings.Contains(buf.String(), "[Show more]") {
		t.Errorf("buttons not rendered:\n%s", buf.String())
	}
}

func TestPrintTurn_TextOnly(t *testing.T) {
	var buf bytes.Buffer
	printTurn(&buf, &api.ChatTurn{Message: "Hello!"})
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("text-only turn printed %d lines", lines)
	}
}
