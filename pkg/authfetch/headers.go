package authfetch

import "net/http"

// Headers normalizes the header representations callers tend to have at hand
// (http.Header, map[string]string, map[string][]string) into an http.Header.
// Unsupported values yield an empty header.
func Headers(v any) http.Header {
	h := make(http.Header)
	switch src := v.(type) {
	case http.Header:
		mergeHeaders(h, src)
	case map[string][]string:
		mergeHeaders(h, http.Header(src))
	case map[string]string:
		for k, val := range src {
			h.Set(k, val)
		}
	case [][2]string:
		for _, kv := range src {
			h.Add(kv[0], kv[1])
		}
	}
	return h
}

// mergeHeaders copies src into dst, replacing keys present in both.
func mergeHeaders(dst, src http.Header) {
	for key, values := range src {
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
