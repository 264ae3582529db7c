package model

import (
	"errors"
	"testing"
)

func TestRichContent_Validate(t *testing.T) {
	tests := []struct {
		name string
		rc   *RichContent
		want error
	}{
		{"carousel", NewProductCarousel([]ProductSummary{{ID: "1", Name: "Hoodie"}}), nil},
		{"empty carousel", NewProductCarousel(nil), ErrEmptyCarousel},
		{"buttons", NewActionButtons([]ActionButton{{Label: "Show more", Action: "search"}}), nil},
		{"empty buttons", NewActionButtons(nil), ErrEmptyButtons},
		{"unknown", &RichContent{Type: "video"}, ErrUnknownRichContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rc.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRichContent_MessageType(t *testing.T) {
	if got := NewProductCarousel(nil).MessageType(); got != MessageTypeCarousel {
		t.Errorf("carousel message type = %q", got)
	}
	if got := NewActionButtons(nil).MessageType(); got != MessageTypeActionButtons {
		t.Errorf("buttons message type = %q", got)
	}
	if got := (&RichContent{Type: "other"}).MessageType(); got != MessageTypeText {
		t.Errorf("unknown message type = %q", got)
	}
}

func TestMessage_RichRoundTrip(t *testing.T) {
	var m Message
	if m.Rich() != nil {
		t.Fatalf("zero message has rich content")
	}
	m.SetRich(NewProductCarousel([]ProductSummary{{ID: "3", Name: "Arabica Blend", Tags: []string{"coffee"}}}))
	rc := m.Rich()
	if rc == nil || rc.Products[0].Name != "Arabica Blend" {
		t.Errorf("Rich() = %+v", rc)
	}
	m.SetRich(nil)
	if m.RichContent != nil {
		t.Errorf("SetRich(nil) did not clear")
	}
}

func TestProduct_Summary(t *testing.T) {
	p := Product{ID: 12, Name: "Hoodie", Price: 39.99, Category: "Clothing & Fashion", InStock: true}
	s := p.Summary()
	if s.ID != "12" || s.ImageURL != "" || s.Tags == nil || len(s.Tags) != 0 {
		t.Errorf("Summary() = %+v", s)
	}
}
