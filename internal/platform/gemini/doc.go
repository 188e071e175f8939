// Package gemini implements generation.Generator on Google's Gemini API.
//
// Prompts are embedded text templates, one per generation kind. Calls stream
// JSON output through the genai client, retry transient failures with
// exponential backoff and validate the finished document against the
// kind's schema.
package gemini
