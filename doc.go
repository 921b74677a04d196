// Package fieldchat turns a typed Signature, few-shot demos and live input values into
// chat messages for a language model and parses the model's completions back into
// output fields.
//
// The primary encoding marks every field with a line of the form "[[[ ### name ### ]]]".
// When a completion cannot be parsed, the whole exchange is retried once with a stricter
// fallback encoding (JSON by default).
package fieldchat
