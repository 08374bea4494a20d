// Package perrors defines the typed error taxonomy of the storage core
// (spec §7). Every error a caller might need to branch on is a sentinel
// here, wrapped with fmt.Errorf("%w") by the packages that raise it so
// callers use errors.Is/errors.As instead of string matching.
package perrors
