// Package adapter holds the provider-neutral helpers shared by fieldchat model
// implementations (OpenAI, Anthropic, Gemini, Ollama): typed extraction of well-known model parameters,
// splitting the system instructions from the conversation, and decoding embedded media.
// Provider implementations live in their own modules under this directory.
package adapter
