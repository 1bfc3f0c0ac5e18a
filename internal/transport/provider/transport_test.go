package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestUnwrapCallback(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"wrapped", `cb(["q",["a","b"]])`, `["q",["a","b"]]`, nil},
		{"wrapped with semicolon", "cb([1]);\n", `[1]`, nil},
		{"comment prefix", `/**/ cb({"a":1})`, `{"a":1}`, nil},
		{"bare json", ` ["q",[]] `, `["q",[]]`, nil},
		{"foreign", `other([1])`, "", errForeignCallback},
		{"garbage", `<html>`, "", errUnrecognizedPayload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unwrapCallback([]byte(tc.body), "cb")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompletionTransport_EchoesCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb := r.URL.Query().Get("callback")
		if cb == "" {
			t.Error("callback parameter missing")
		}
		if r.URL.Query().Get("q") != "gift" {
			t.Errorf("query lost: %s", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `%s(["gift",["gift card","gift box"]])`, cb)
	}))
	defer srv.Close()

	tr := NewCompletionTransport(srv.Client(), time.Second, "kwharvest-test")
	v, err := tr.Get(context.Background(), srv.URL+"/complete?q=gift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeOpenSearch(v); !reflect.DeepEqual(got, []string{"gift card", "gift box"}) {
		t.Errorf("decoded = %v", got)
	}
	if tr.Pending() != 0 {
		t.Errorf("callback registration leaked: %d pending", tr.Pending())
	}
}

func TestCompletionTransport_UniqueCallbacks(t *testing.T) {
	seen := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb := r.URL.Query().Get("callback")
		seen <- cb
		fmt.Fprintf(w, `%s([])`, cb)
	}))
	defer srv.Close()

	tr := NewCompletionTransport(srv.Client(), time.Second, "")
	for i := 0; i < 2; i++ {
		if _, err := tr.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if a, b := <-seen, <-seen; a == b {
		t.Errorf("callback names must be one-shot, got %q twice", a)
	}
}

func TestCompletionTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr := NewCompletionTransport(srv.Client(), 50*time.Millisecond, "")
	start := time.Now()
	_, err := tr.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ceiling not enforced, took %v", elapsed)
	}
	if tr.Pending() != 0 {
		t.Errorf("callback registration leaked after timeout: %d", tr.Pending())
	}
}

func TestCompletionTransport_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewCompletionTransport(srv.Client(), time.Second, "")
	_, err := tr.Get(context.Background(), srv.URL)
	if !errors.Is(err, errUnexpectedStatus) {
		t.Fatalf("expected errUnexpectedStatus, got %v", err)
	}
	if tr.Pending() != 0 {
		t.Errorf("callback registration leaked after failure: %d", tr.Pending())
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{
			"relay markdown",
			"Title: \n\nURL Source: https://api.bing.com/osjson.aspx?query=gift\n\nMarkdown Content:\n```json\n[\"gift\",[\"gift card\"]]\n```",
			[]any{"gift", []any{"gift card"}},
		},
		{
			"object",
			`noise {"gossip":{"results":[{"key":"gift"}]}} trailing`,
			map[string]any{"gossip": map[string]any{"results": []any{map[string]any{"key": "gift"}}}},
		},
		{
			"greedy span",
			`[1] and [2]`,
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.text)
			if tc.want == nil {
				// "[1] and [2]" spans both arrays and is not valid JSON.
				if err == nil {
					t.Fatalf("expected decode failure, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("Title: nothing here"); !errors.Is(err, errNoEmbeddedJSON) {
		t.Fatalf("expected errNoEmbeddedJSON, got %v", err)
	}
}

func TestRelayTransport_PrefixesTarget(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("Title: x\n[\"gift\",[\"gift card\"]]"))
	}))
	defer srv.Close()

	tr := NewRelayTransport(srv.Client(), srv.URL+"/", "")
	v, err := tr.Get(context.Background(), "https://api.bing.com/osjson.aspx?query=gift")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/https://api.bing.com/osjson.aspx" {
		t.Errorf("relay path = %q", gotPath)
	}
	if got := decodeOpenSearch(v); len(got) != 1 || got[0] != "gift card" {
		t.Errorf("decoded = %v", got)
	}
}
