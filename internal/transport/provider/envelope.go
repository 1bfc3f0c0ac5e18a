package provider

// Decoder flattens one provider's response envelope into raw suggestion strings.
type Decoder func(v any) []string

// decodeOpenSearch reads the OpenSearch-style [query, [suggestions...], ...] shape.
// Suggestions may be bare strings or arrays whose first element is the text.
func decodeOpenSearch(v any) []string {
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return nil
	}
	list, ok := arr[1].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		switch x := e.(type) {
		case string:
			out = append(out, x)
		case []any:
			if len(x) > 0 {
				if s, ok := x[0].(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// decodePhraseList reads [{"phrase": s}, ...] or a bare [s, ...].
func decodePhraseList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		switch x := e.(type) {
		case string:
			out = append(out, x)
		case map[string]any:
			if s, ok := x["phrase"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// decodeGossip reads {"gossip": {"results": [{"key": s}, ...]}}.
func decodeGossip(v any) []string {
	root, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	gossip, ok := root["gossip"].(map[string]any)
	if !ok {
		return nil
	}
	results, ok := gossip["results"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(results))
	for _, e := range results {
		if m, ok := e.(map[string]any); ok {
			if s, ok := m["key"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
