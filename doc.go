// Package seqio provides the building blocks shared by the FASTA, FASTQ and
// FASTX parsers: positions, buffer growth policies, the common error type,
// and helpers for opening possibly-compressed sequence files.
//
// The format-specific readers live in the fasta, fastq and fastx
// subpackages; the parallel subpackage runs record sets through a pool of
// workers while preserving input order.
package seqio
