// Command loopsleuth catalogs video clips, detects perceptual duplicates, and
// lets a curator resolve them.
//
// Typical use:
//
//	loopsleuth scan ~/Videos/loops
//	loopsleuth duplicates
//	loopsleuth review 42 merge
//	loopsleuth serve
package main
