// Package model provides the canonical record types for tillsync.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import model; model imports nothing internal. This
// keeps the record model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Exactly one canonical field naming: records crossing the external
//     interface are normalized once (NormalizeOrder); the core never
//     branches on snake_case vs camelCase again.
//   - Status axes are typed strings with a fixed total order (Rank).
//     Unknown values rank below every known value and are never treated
//     as more advanced.
//   - All JSON tags use camelCase (the wire convention of the POS client).
package model
