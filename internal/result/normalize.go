// Package result turns the engine's loosely shaped JSON replies into a
// single outcome the handlers and the session can act on. The engine answers
// in several shapes depending on endpoint and sync mode; the extraction
// order here is fixed so two replies carrying overlapping keys always
// resolve the same way.
package result

import "strings"

// Status classifies a normalized reply.
type Status string

const (
	// StatusEmpty means the reply carried no usable URL.
	StatusEmpty Status = "empty"

	// StatusReady means at least one URL is final and displayable.
	StatusReady Status = "ready"

	// StatusPending means the reply carried URLs that may not resolve yet
	// and must be verified by polling.
	StatusPending Status = "pending"
)

// Outcome is the normalized form of an engine reply.
type Outcome struct {
	Status Status
	// URL is the single displayable image for ready outcomes.
	URL string
	// URLs carries the candidate set for pending outcomes, or the full
	// ready set when the reply resolved more than one image.
	URLs []string
}

// Normalize extracts display URLs from a raw engine reply. Keys are checked
// in a fixed priority order: result_url, then result_urls, then the result
// collection, then bare urls. sync selects between the synchronous
// interpretation (first hit wins, final) and the asynchronous one (URLs from
// the result collection and urls keys are unverified). numResults caps how
// many URLs a multi-image reply may yield; values below one default to one.
func Normalize(raw map[string]any, sync bool, numResults int) Outcome {
	if numResults < 1 {
		numResults = 1
	}

	if url := stringField(raw, "result_url"); url != "" {
		return Outcome{Status: StatusReady, URL: url}
	}
	if urls := stringSlice(raw["result_urls"]); len(urls) > 0 {
		return Outcome{Status: StatusReady, URL: urls[0], URLs: capped(urls, numResults)}
	}

	if sync {
		return normalizeSync(raw)
	}
	return normalizeAsync(raw, numResults)
}

// normalizeSync takes the first URL found in the result collection or the
// urls key. Synchronous replies only carry final URLs.
func normalizeSync(raw map[string]any) Outcome {
	if items, ok := raw["result"].([]any); ok {
		for _, item := range items {
			if url := firstItemURL(item); url != "" {
				return Outcome{Status: StatusReady, URL: url}
			}
		}
	}
	if urls := stringSlice(raw["urls"]); len(urls) > 0 {
		return Outcome{Status: StatusReady, URL: urls[0]}
	}
	return Outcome{Status: StatusEmpty}
}

// normalizeAsync collects every candidate URL; the caller must verify them
// before display because the engine hands out URLs ahead of the uploads.
func normalizeAsync(raw map[string]any, numResults int) Outcome {
	var collected []string
	if items, ok := raw["result"].([]any); ok {
		for _, item := range items {
			collected = append(collected, itemURLs(item)...)
		}
	}
	if len(collected) == 0 {
		collected = stringSlice(raw["urls"])
	}
	collected = capped(collected, numResults)
	if len(collected) == 0 {
		return Outcome{Status: StatusEmpty}
	}
	return Outcome{Status: StatusPending, URLs: collected}
}

// firstItemURL returns the first URL inside one entry of the result
// collection. Entries are either objects with a urls array or bare arrays of
// URL strings.
func firstItemURL(item any) string {
	urls := itemURLs(item)
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func itemURLs(item any) []string {
	switch v := item.(type) {
	case map[string]any:
		return stringSlice(v["urls"])
	case []any:
		return stringSlice(v)
	}
	return nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func capped(urls []string, n int) []string {
	if len(urls) > n {
		return urls[:n]
	}
	return urls
}
