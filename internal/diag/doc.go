// Package diag defines the diagnostic model shared by every import phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for everything the
//     importer wants to tell the host: conversion losses, skipped types,
//     naming conflicts, fatal input problems.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting layers.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with the stable
//     rendered form "TInnnn"; codes group by thousands into load, naming,
//     conversion, member, class, reference and driver families.
//   - Message: human oriented text; keep it short and actionable.
//   - Origin: the {Library, Type, Member} path the diagnostic concerns.
//   - Notes: optional secondary origins/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. "name
// first reserved here") rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Phases use a diag.Reporter to decouple emission from storage. Producers
// construct a ReportBuilder via NewReportBuilder (or the helpers
// ReportError/ReportWarning/ReportInfo), chain WithNote and call Emit. When
// no extra metadata is needed, calling Reporter.Report directly is fine.
//
// BagReporter aggregates into a Bag, which supports sorting, deduplication
// and merging. DedupReporter drops exact repeats at the emission point.
// SilenceReporter implements the host-facing silence list: a fixed set of
// warning codes, or everything below error severity; the two modes are
// mutually exclusive and errors are never silenced.
//
// # Consumers
//
//   - internal/diagfmt renders Diagnostics as pretty terminal output or JSON.
//   - internal/pipeline collects per-run bags and decides the exit status.
//
// Keep the data model deterministic: diagnostics are compared verbatim in
// tests and may be serialised for tooling.
package diag
