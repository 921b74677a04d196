// Package ollama implements fieldchat.Model over the Ollama Chat API.
//
// Requests are sent with streaming disabled. Media parts must be base64 data URIs; they are
// decoded and attached to the user message as images. Ollama returns one completion per
// call, so a request for n candidates issues n sequential calls.
// Model options (temperature, max_tokens, top_p, stop) are set on the request's Options map.
package ollama
