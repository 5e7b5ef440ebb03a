package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/3/groups", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[{"groupId":604,"name":"Obsidian Flames","abbreviation":"OBF","publishedOn":"2023-08-11"}]}`))
	})
	mux.HandleFunc("/3/604/prices", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[
			{"productId":501773,"subTypeName":"Normal","marketPrice":0.06,"lowPrice":0.01},
			{"productId":501773,"subTypeName":"Reverse Holofoil","marketPrice":0.15},
			{"productId":501999,"subTypeName":"Normal","marketPrice":null}
		]}`))
	})
	mux.HandleFunc("/3/604/products", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[
			{"productId":501773,"name":"Charmander - 026/197","extendedData":[{"name":"Number","value":"026/197"},{"name":"Rarity","value":"Common"}]},
			{"productId":501999,"name":"Obsidian Flames Booster Pack","extendedData":[]}
		]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// go test -v --run TestGetGroups
func TestGetGroups(t *testing.T) {
	srv := testServer(t)
	client := NewClient(srv.URL, 3, 5*time.Second, 0)

	groups, err := client.GetGroups(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || groups[0].GroupID != 604 || groups[0].Abbreviation != "OBF" {
		t.Errorf("unexpected groups: %+v", groups)
	}
}

// go test -v --run TestGetGroupPrices
func TestGetGroupPrices(t *testing.T) {
	srv := testServer(t)
	client := NewClient(srv.URL, 3, 5*time.Second, 0)

	rows, err := client.GetGroupPrices(context.Background(), 604)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 price rows, got %d", len(rows))
	}
	if rows[0].MarketPrice == nil || *rows[0].MarketPrice != 0.06 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	// Priceless rows survive decoding as nil, not zero.
	if rows[2].MarketPrice != nil {
		t.Errorf("null marketPrice should decode to nil, got %v", *rows[2].MarketPrice)
	}
}

// go test -v --run TestGetGroupProducts
func TestGetGroupProducts(t *testing.T) {
	srv := testServer(t)
	client := NewClient(srv.URL, 3, 5*time.Second, 0)

	products, err := client.GetGroupProducts(context.Background(), 604)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].CardNumber() != "026/197" || products[0].Rarity() != "Common" {
		t.Errorf("extendedData accessors failed: %+v", products[0])
	}
	if products[1].CardNumber() != "" {
		t.Errorf("sealed product should have no card number, got %q", products[1].CardNumber())
	}
}

// go test -v --run TestGetResultsErrors
func TestGetResultsErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/3/1/prices", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/3/2/prices", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"count":0}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, 3, 5*time.Second, 0)
	if _, err := client.GetGroupPrices(context.Background(), 1); err == nil {
		t.Error("expected error on HTTP 404")
	}
	if _, err := client.GetGroupPrices(context.Background(), 2); err == nil {
		t.Error("expected error on missing results envelope")
	}
}
