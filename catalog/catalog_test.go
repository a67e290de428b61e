package catalog

import (
	"reflect"
	"testing"
)

func TestProductKnownNamesCaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		want  ProductRecord
	}{
		{"iPhone", ProductRecord{"iPhone", "$999", "In Stock", 4.8}},
		{"IPHONE", ProductRecord{"iPhone", "$999", "In Stock", 4.8}},
		{"  iphone ", ProductRecord{"iPhone", "$999", "In Stock", 4.8}},
		{"Samsung Galaxy", ProductRecord{"Samsung Galaxy", "$899", "In Stock", 4.6}},
		{"google PIXEL", ProductRecord{"Google Pixel", "$799", "Limited Stock", 4.5}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Product(tt.input); got != tt.want {
				t.Errorf("Product(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultsForUnknownProduct(t *testing.T) {
	name := "Nokia 3310"

	p := Product(name)
	if p != (ProductRecord{name, "$199", "Out of Stock", 3.5}) {
		t.Errorf("unexpected default product record: %+v", p)
	}

	m := MarketTrends(name)
	if m != (MarketTrendRecord{name, TrendStable, 70, 12000}) {
		t.Errorf("unexpected default market record: %+v", m)
	}

	c := Competitors(name)
	if c.Product != name || c.MarketShare != "5%" || c.CompetitiveAdvantage != "Price point" ||
		!reflect.DeepEqual(c.MainCompetitors, []string{"Various brands"}) {
		t.Errorf("unexpected default competitor record: %+v", c)
	}

	f := Feedback(name)
	if f.Product != name || f.SatisfactionScore != 65 ||
		!reflect.DeepEqual(f.PositivePoints, []string{"Affordable", "Basic functionality"}) ||
		!reflect.DeepEqual(f.NegativePoints, []string{"Performance", "Build quality"}) ||
		!reflect.DeepEqual(f.CommonIssues, []string{"Short lifespan", "Limited support"}) {
		t.Errorf("unexpected default feedback record: %+v", f)
	}
}

func TestMarketTrendsKnown(t *testing.T) {
	got := MarketTrends("iphone")
	want := MarketTrendRecord{"iPhone", TrendRising, 92, 45000}
	if got != want {
		t.Errorf("MarketTrends(iphone) = %+v, want %+v", got, want)
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	c := Competitors("iphone")
	c.MainCompetitors[0] = "mutated"

	if Competitors("iphone").MainCompetitors[0] != "Samsung Galaxy" {
		t.Error("mutating a returned record changed the table")
	}

	f := Feedback("google pixel")
	f.CommonIssues[0] = "mutated"
	if Feedback("google pixel").CommonIssues[0] != "Screen brightness" {
		t.Error("mutating a returned feedback record changed the table")
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"what is the price of the iphone", "iPhone", true},
		{"Is the Samsung Galaxy in stock?", "Samsung Galaxy", true},
		{"google pixel reviews", "Google Pixel", true},
		{"tell me about the nokia 3310", "", false},
	}

	for _, tt := range tests {
		got, ok := Find(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Find(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestKnownAndNames(t *testing.T) {
	if !Known("IPhone") {
		t.Error("expected iPhone to be known")
	}
	if Known("nokia") {
		t.Error("expected nokia to be unknown")
	}

	want := []string{"iPhone", "Samsung Galaxy", "Google Pixel"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestFields(t *testing.T) {
	p := Product("iphone").Fields()
	if p["price"] != "$999" || p["rating"] != 4.8 || p["availability"] != "In Stock" {
		t.Errorf("unexpected product fields: %v", p)
	}

	m := MarketTrends("iphone").Fields()
	if m["trend"] != "Rising" || m["popularity_score"] != 92 || m["monthly_searches"] != 45000 {
		t.Errorf("unexpected market fields: %v", m)
	}
}
