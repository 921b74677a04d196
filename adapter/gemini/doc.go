// Package gemini implements fieldchat.Model over the Google Gemini (genai) GenerateContent API.
//
// System messages become the request's system instruction and assistant turns use the
// "model" role. Media parts must be base64 data URIs and are sent as inline bytes.
// The "n" parameter maps to CandidateCount; candidates are returned in response order.
// MaxOutputTokens is clamped to math.MaxInt32 when max_tokens exceeds int32 range.
package gemini
