// Package llm implements the reasoning-service classifier. It prompts an
// external text-generation service with the transaction and the tenant's
// correction examples, and parses a strict-JSON account pair from the reply.
// Providers: OpenAI-compatible chat completions (including local Ollama),
// Anthropic messages, and Google Gemini.
package llm
