// Package anthropic implements fieldchat.Model over the Anthropic Messages API.
//
// System messages are joined into the request's system parameter. Media parts must be base64
// data URIs or https URLs; https media is downloaded with mediafetch and sent inline.
// The Messages API has no "n" parameter, so a request for n candidates issues n concurrent
// calls and returns their texts in call order.
package anthropic
