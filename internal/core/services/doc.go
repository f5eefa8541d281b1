// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO or external dependencies.
//
// A chat turn flows through three services:
//
//	ContextBuilder -> Retriever -> Generator
//
// ChatService wires them together and records the resulting turn.
// IndexService runs once at startup and produces the Corpus the
// Retriever searches.
package services
