// Package model abstracts the language-model streaming protocol behind a
// vendor-neutral interface.
//
// A Request carries the conversation history, republished context blocks and
// the tool catalog. The response is a Stream of events: text deltas, tool
// invocations and a terminal end marker. For every tool invocation the
// consumer must supply a ToolResult before the stream continues, because the
// protocol expects a result for each invocation.
//
// Providers (Anthropic, OpenAI) implement the Model interface from this
// package so the session controller stays decoupled from vendor SDKs.
// MockModel replays scripted event sequences for tests.
package model
