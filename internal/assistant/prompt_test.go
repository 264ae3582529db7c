package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt, err := BuildSystemPrompt(sampleCatalog())
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}

	for _, want := range []string{
		"You are Popcorn AI",
		"founded in Egypt over 100 years ago",
		"**COMPLETE PRODUCT CATALOG:**",
		`"id": 1`,
		`"name": "Aurora Laptop 14"`,
		`"inStock": false`,
		"3 days for local delivery in Egypt",
		"30-day return policy",
		"International Shipping",
		"24/7",
		"search_products(ids)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptEmptyCatalog(t *testing.T) {
	prompt, err := BuildSystemPrompt(nil)
	if err != nil {
		t.Fatalf("BuildSystemPrompt: %v", err)
	}
	if !strings.Contains(prompt, "**COMPLETE PRODUCT CATALOG:**\n[]") {
		t.Fatal("empty catalog should render as an empty list")
	}
}

func TestComposeReadsCatalogEveryCall(t *testing.T) {
	catalog := &fakeCatalog{products: sampleCatalog()[:1]}
	composer := NewPromptComposer(catalog)

	first, err := composer.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	catalog.products = sampleCatalog()
	second, err := composer.Compose(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(first, "Cairo Morning Blend") || !strings.Contains(second, "Cairo Morning Blend") {
		t.Fatal("composer should rebuild the prompt from the current catalog")
	}
}

func TestComposeCatalogError(t *testing.T) {
	composer := NewPromptComposer(&fakeCatalog{findAllErr: errors.New("down")})
	if _, err := composer.Compose(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseSearchProductsArgs(t *testing.T) {
	ids, err := parseSearchProductsArgs(`{"ids":["1", 2, "abc"]}`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids, ",") != "1,2,abc" {
		t.Fatalf("unexpected ids %v", ids)
	}

	if _, err := parseSearchProductsArgs(`not json`); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
	if _, err := parseSearchProductsArgs(`{"ids":[{"id":1}]}`); err == nil {
		t.Fatal("expected error for object ids")
	}
}
