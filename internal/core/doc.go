// Package core provides the business logic for spreadsheet translation round-trips.
//
// A translation unit (one content object, one source locale, one target
// locale) is exported to an xlsx workbook, edited offline by a translator,
// and imported back. The package has no transport dependencies and is used
// unchanged by the HTTP server, the CLI and the tests.
//
// # Format
//
// The workbook has one worksheet named after the unit's identity marker
// (see [MarkerFromUUID]). Rows 1 and 2 hold metadata, row [HeaderRowIndex]
// holds the header ID, Original, Translation and every following row is a
// data row. Rows for translations whose segment no longer exists carry
// [ObsoleteTag] in column D.
//
// # Export
//
// [Export] is a pure function from segments and translations to a
// [Document]; [EncodeWorkbook] renders it.
//
// # Import
//
// [DecodeWorkbook] rejects files that are unreadable, were exported for
// another unit, or have a modified header, returning a [*StructuralError].
// [Importer.Apply] then reconciles each row inside one [Store] transaction:
//
//  1. the source text must name a known SourceString ([UnknownString])
//  2. the ID must name a known Context of the object ([UnknownContext])
//  3. blank translations are skipped
//  4. the pair must be a live segment or already translated ([StringNotUsedInContext])
//  5. the translation is created, or updated only when its text changed
//
// Optionally every translation not seen in the file is deleted afterwards.
// Unchanged files therefore import as a no-op.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages by [MapError]:
//
//   - DB001-DB007: Database errors (constraints, connections)
//   - FILE001-FILE005: Upload errors (size, missing file)
//   - XLS001-XLS004: Workbook structure errors
//   - AUTH001-AUTH002: Permission and lookup errors
//   - UPL002-UPL005: Import scheduling errors (busy, cancelled, timed out)
//   - LOCK001: Another import of the same unit holds the lock
//
// # Audit Logging
//
// Every export and import attempt is recorded through [Store.RecordAudit].
// Imports that delete translations are recorded with high severity.
package core
