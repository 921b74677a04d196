// Package openai implements fieldchat.Model over the OpenAI Chat Completions API.
// System messages map to system turns, media parts to image_url content parts (detail "auto"),
// and the "n" parameter requests several candidates, returned in choice order.
package openai
