// Package federation reads and surgically rewrites the module-federation
// settings of a Vite configuration file.
//
// The package sits on top of internal/scan and is made of pure functions
// over the file text:
//
//   - Extractors (ParseExposeMap, ParseRemoteMap, ParseShared, ParseConfig)
//     turn located blocks into model types.
//   - ClassifyRole derives remote/host from which block is present.
//   - The renderer (RenderBlock, QuoteString) turns model types back into
//     source text. Every interpolated value is escaped, and output is
//     deterministic so repeated runs are idempotent.
//   - The rewriter (ReplaceBlock, Apply and the Set* helpers) splices
//     rendered text into exactly the located region. When a block does not
//     exist yet it is injected into the federation(...) call; when there is
//     no call, one is inserted into the plugins array; when there is no
//     plugins array either, the whole file is regenerated.
//
// Nothing here performs I/O or logs. Malformed input never produces an error;
// it degrades to "not found" and the rewriter picks the next fallback.
package federation
