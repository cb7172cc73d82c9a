// Package diag collects build diagnostics and maps them to stable codes.
//
// # Diagnostic Codes Reference
//
// Every problem found while building a catalog carries a code that can be
// quoted when reporting or searching for it. Codes are grouped by stage:
//
// # Source Files (FILE001-FILE099)
//
//	FILE001 - Unreadable source: the unit-definition file could not be read
//	          Action: Check the path and file permissions
//
//	FILE002 - No property: the file has no quantity header naming a property
//	          Action: Add a `quantity: Name; "property";` declaration or exclude the file
//
//	FILE003 - No units block: the file declares no units
//	          Action: Nothing to do unless units were expected
//
// # Entry Parsing (PARSE001-PARSE099)
//
//	PARSE001 - Malformed entry: identifier, terminator or names are missing
//	           Action: Fix the entry so it reads @id: expr; "sym", "singular", "plural";
//
//	PARSE002 - Unterminated entry: the units block ended inside an entry
//	           Action: Close the entry with a terminating semicolon
//
// # Expressions (EXPR001-EXPR099)
//
//	EXPR001 - Unknown prefix: a prefix!(name) reference names no known prefix
//	          Action: Use a decimal SI or binary IEC prefix name
//
//	EXPR002 - Malformed arithmetic: the expression is not numbers, + - * / and parentheses
//	          Action: Simplify the expression
//
// # Reference Units (REF001-REF099)
//
//	REF001 - Override not found: the curated reference unit is not in the property
//	         Action: Fix the override; the closest unit to 1.0 is used meanwhile
//
// # Reconciliation (REC001-REC099)
//
//	REC001 - Unresolved conversion: no factor could be derived for a prefixed unit (fatal)
//	         Action: Add a special conversion for the unit or its base
//
//	REC002 - Repeated match: a library unit matched more than one prefixed unit
//	         Action: Check the prefixed catalog for duplicates
//
//	REC003 - Unknown prefix: a prefixed unit names no known prefix (fatal)
//	         Action: Fix the prefixed catalog
//
// # Catalog Invariants (CAT001-CAT099), all fatal
//
//	CAT001 - Duplicate key: two records share (unit, property)
//	CAT002 - Several references: a property has more than one reference unit
//	CAT003 - Dangling reference: a reference unit names no unit of its property
//	CAT004 - Invalid factor: a conversion factor is not a positive finite number
//
// # Schema (SCH001-SCH099)
//
//	SCH001 - Schema violation: a record does not satisfy unit.schema.json (fatal)
//
// # Default (ERR000)
//
//	ERR000 - Unknown problem: see the attached message
package diag

// Code identifies a kind of diagnostic.
type Code string

const (
	CodeUnreadableFile     Code = "FILE001"
	CodeNoProperty         Code = "FILE002"
	CodeNoUnitsBlock       Code = "FILE003"
	CodeMalformedEntry     Code = "PARSE001"
	CodeUnterminatedEntry  Code = "PARSE002"
	CodeUnknownPrefix      Code = "EXPR001"
	CodeMalformedExpr      Code = "EXPR002"
	CodeOverrideNotFound   Code = "REF001"
	CodeUnresolved         Code = "REC001"
	CodeRepeatedMatch      Code = "REC002"
	CodeUnknownPrefixedRef Code = "REC003"
	CodeDuplicateKey       Code = "CAT001"
	CodeSeveralReferences  Code = "CAT002"
	CodeDanglingReference  Code = "CAT003"
	CodeInvalidFactor      Code = "CAT004"
	CodeSchemaViolation    Code = "SCH001"
	CodeUnknown            Code = "ERR000"
)

// Entry describes a code: its default severity, a short message and what to
// do about it.
type Entry struct {
	Code     Code
	Severity Severity
	Message  string
	Action   string
}

var catalogue = map[Code]Entry{
	CodeUnreadableFile:     {CodeUnreadableFile, Warning, "Source file could not be read", "Check the path and file permissions"},
	CodeNoProperty:         {CodeNoProperty, Warning, "File declares no property", "Add a quantity declaration or exclude the file"},
	CodeNoUnitsBlock:       {CodeNoUnitsBlock, Warning, "File has no units block", "Nothing to do unless units were expected"},
	CodeMalformedEntry:     {CodeMalformedEntry, Warning, "Malformed unit entry", `Fix the entry so it reads @id: expr; "sym", "singular", "plural";`},
	CodeUnterminatedEntry:  {CodeUnterminatedEntry, Warning, "Unterminated unit entry", "Close the entry with a terminating semicolon"},
	CodeUnknownPrefix:      {CodeUnknownPrefix, Warning, "Unknown prefix reference", "Use a decimal SI or binary IEC prefix name"},
	CodeMalformedExpr:      {CodeMalformedExpr, Warning, "Malformed arithmetic", "Simplify the expression"},
	CodeOverrideNotFound:   {CodeOverrideNotFound, Warning, "Reference override not found in property", "Fix the override; the closest unit to 1.0 is used meanwhile"},
	CodeUnresolved:         {CodeUnresolved, Fatal, "Conversion factor could not be derived", "Add a special conversion for the unit or its base"},
	CodeRepeatedMatch:      {CodeRepeatedMatch, Warning, "Library unit matched more than once", "Check the prefixed catalog for duplicates"},
	CodeUnknownPrefixedRef: {CodeUnknownPrefixedRef, Fatal, "Prefixed unit names an unknown prefix", "Fix the prefixed catalog"},
	CodeDuplicateKey:       {CodeDuplicateKey, Fatal, "Duplicate (unit, property)", "Remove one of the records"},
	CodeSeveralReferences:  {CodeSeveralReferences, Fatal, "Property has several reference units", "Check reference overrides and special conversions"},
	CodeDanglingReference:  {CodeDanglingReference, Fatal, "Reference unit not present in property", "Check reference overrides and special conversions"},
	CodeInvalidFactor:      {CodeInvalidFactor, Fatal, "Conversion factor is not positive and finite", "Fix the source expression"},
	CodeSchemaViolation:    {CodeSchemaViolation, Fatal, "Record violates the unit schema", "Fix the record or the schema"},
}

var unknownEntry = Entry{
	Code:     CodeUnknown,
	Severity: Fatal,
	Message:  "Unexpected problem",
	Action:   "See the attached message",
}

// Lookup returns the catalogue entry for code, or the ERR000 entry when the
// code is not registered.
func Lookup(code Code) Entry {
	if e, ok := catalogue[code]; ok {
		return e
	}
	return unknownEntry
}

// Codes returns every registered code.
func Codes() []Code {
	out := make([]Code, 0, len(catalogue))
	for c := range catalogue {
		out = append(out, c)
	}
	return out
}
