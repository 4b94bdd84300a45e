// Package parse turns untrusted model output into usable Go values. Model
// text is occasionally malformed JSON, JSON wrapped in prose, or truncated
// mid-structure; every entry point here repairs best-effort before giving up,
// so avoidable run failures caused by output imperfections stay rare.
package parse
