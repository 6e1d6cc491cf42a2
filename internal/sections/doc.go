// Package sections turns marked HTML into protected sections and back.
//
// At build time Extract finds regions wrapped in marker comments, for
// example
//
//	<p>public</p>
//	<!-- start -->
//	<p>members only</p>
//	<!-- end -->
//
// and returns the page with each region replaced by a placeholder element
// plus the ordered list of sections:
//
//	[{"id":"section-0","content":"<p>members only</p>"}]
//
// Ids are assigned in encounter order, so the order of the serialized array
// is part of the contract between the encoder and the page runtime.
//
// At view time InjectSection swaps a placeholder for the parsed section
// markup on a golang.org/x/net/html document. Injection is idempotent: a
// placeholder that is already gone is left alone.
package sections
