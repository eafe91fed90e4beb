// Package manx provides a command-line documentation finder.
// It resolves libraries against the Context7 documentation service, caches
// results locally for offline use, indexes local documents for
// retrieval-augmented search, and optionally synthesizes cited answers with
// an LLM.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, context7/, ollama/).
package manx
