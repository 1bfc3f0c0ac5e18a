package provider

import (
	"net/url"
	"strconv"

	domprov "github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

// Default upstream endpoints.
const (
	GoogleURL     = "https://www.google.com/complete/search"
	YouTubeURL    = "https://suggestqueries.google.com/complete/search"
	AmazonURL     = "https://completion.amazon.com/search/complete"
	BingURL       = "https://api.bing.com/osjson.aspx"
	DuckDuckGoURL = "https://duckduckgo.com/ac/"
	YahooURL      = "https://search.yahoo.com/sugg/gossip/gossip-us-ura"
	GoogleCSEURL  = "https://clients1.google.com/complete/search"
)

// Custom search engine ids of the two CSE providers.
const (
	cse1ID = "006368593537057042503:efxu7xprihg"
	cse2ID = "f65f6a13598034679"
)

type transportKind int

const (
	kindCompletion transportKind = iota
	kindRelay
)

// builder renders the upstream URL for one request.
type builder func(base string, req domprov.Request) string

type spec struct {
	base   string
	kind   transportKind
	build  builder
	decode Decoder
}

func defaultSpecs() map[domprov.ID]spec {
	return map[domprov.ID]spec{
		domprov.Google:     {GoogleURL, kindCompletion, buildGoogle, decodeOpenSearch},
		domprov.YouTube:    {YouTubeURL, kindCompletion, buildYouTube, decodeOpenSearch},
		domprov.Amazon:     {AmazonURL, kindCompletion, buildAmazon, decodeOpenSearch},
		domprov.Bing:       {BingURL, kindRelay, buildBing, decodeOpenSearch},
		domprov.DuckDuckGo: {DuckDuckGoURL, kindRelay, buildDuckDuckGo, decodePhraseList},
		domprov.Yahoo:      {YahooURL, kindRelay, buildYahoo, decodeGossip},
		domprov.GoogleCSE1: {GoogleCSEURL, kindCompletion, buildCSE(cse1ID), decodeOpenSearch},
		domprov.GoogleCSE2: {GoogleCSEURL, kindCompletion, buildCSE(cse2ID), decodeOpenSearch},
	}
}

func render(base string, q url.Values) string {
	return base + "?" + q.Encode()
}

// buildGoogle uses the chrome client, the one that honors the cursor position.
func buildGoogle(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("client", "chrome")
	q.Set("q", req.Query)
	q.Set("gl", req.Locale)
	q.Set("ie", "UTF-8")
	q.Set("oe", "UTF-8")
	if req.Cursor != nil {
		q.Set("cp", strconv.Itoa(*req.Cursor))
	}
	return render(base, q)
}

func buildYouTube(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("client", "youtube")
	q.Set("ds", "yt")
	q.Set("q", req.Query)
	q.Set("gl", req.Locale)
	return render(base, q)
}

func buildAmazon(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("method", "completion")
	q.Set("mkt", "1")
	q.Set("q", req.Query)
	q.Set("search-alias", "aps")
	return render(base, q)
}

func buildBing(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("query", req.Query)
	return render(base, q)
}

func buildDuckDuckGo(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("type", "list")
	return render(base, q)
}

func buildYahoo(base string, req domprov.Request) string {
	q := url.Values{}
	q.Set("command", req.Query)
	q.Set("output", "json")
	return render(base, q)
}

func buildCSE(cx string) builder {
	return func(base string, req domprov.Request) string {
		q := url.Values{}
		q.Set("client", "partner-generic")
		q.Set("ds", "cse")
		q.Set("cx", cx)
		q.Set("q", req.Query)
		return render(base, q)
	}
}
