// Package ir provides the value types shared by every routesync package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the location model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Location state payloads are ir.Value trees, never interpreted
//   - NO float types anywhere - use int64 for numbers
//   - Equality of state payloads is structural and byte-exact (Equal), so
//     recreated payloads compare equal regardless of object key order
//   - Digests hash canonical JSON (RFC 8785)
//   - Action types are plain strings so that foreign code can recognize them
package ir
