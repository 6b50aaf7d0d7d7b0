// Package domain holds the core model types, sentinel errors, and the
// interfaces the engine depends on. It imports no other internal package.
package domain
