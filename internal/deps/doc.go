// Package deps resolves the sibling frameworks a compiled module links against.
package deps
