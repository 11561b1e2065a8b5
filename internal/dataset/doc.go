// Package dataset is the tabular analytics engine.
//
// It turns the raw bytes of an uploaded CSV or spreadsheet into a typed,
// in-memory [Table] and answers analytical queries over it. The package has
// no HTTP, storage or logging dependencies and can be used by any frontend.
//
// # Loading
//
// [Load] decodes a byte slice plus a declared extension (csv, xls, xlsx) into
// a Table. Every column receives exactly one [ColumnType] at load time:
//
//   - Numeric: every non-absent cell parses as a number
//   - Boolean: every non-absent cell is a boolean literal (true/false, yes/no)
//   - Temporal: every non-absent cell parses as a date or timestamp
//   - Categorical: anything else, with a low/high cardinality hint
//
// Blank cells and the usual NA tokens ("NA", "NULL", "NaN", ...) are Absent.
// Engines dispatch on the column type and never re-inspect raw strings.
//
// # Engines
//
// Four independent consumers of a Table:
//
//   - [Summarize]: descriptive statistics and a Pearson correlation matrix
//   - [AggregateByGroup]: per-group measures over numeric columns
//   - [Filter]: AND of column-scoped comparison predicates
//   - [Page]: offset-based row windows
//
// Only [Load] and [AggregateByGroup] return errors. Statistics and filtering
// degrade to null measures and no-op predicates instead of failing.
package dataset
