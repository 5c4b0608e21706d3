// Package montecarlo estimates the area of a shape in an image by uniform
// random sampling.
//
// A run draws TotalSamples coordinates uniformly over the working image,
// classifies each with a detection.Policy and scales the inside fraction by
// the reference area:
//
//	area = inside / total * referenceArea
//
// Samples are drawn in chunks of at most DefaultChunkSize so memory does
// not grow with the sample budget. A ProgressFunc sees the done fraction
// after every chunk, and the run's context is checked between chunks.
//
// # Reproducibility
//
// Every run owns its random source (NewRand). A non-zero seed makes the
// inside count and area estimate bit-identical across runs with the same
// inputs. Seed zero draws a fresh seed.
//
// # Convergence
//
// A run also yields a convergence curve of partial estimates at
// increasing sample counts, derived in exactly one Mode. ModePrefix (the
// default) uses prefixes of the main sample stream; ModeResample runs an
// independent experiment per checkpoint and therefore shows more
// point-to-point variance.
//
// # Display Subsample
//
// At most DisplayLimit (x, y, inside) triples are kept for rendering by
// the caller, spread across all chunks in proportion to chunk size and
// reported in original-image coordinates.
package montecarlo
