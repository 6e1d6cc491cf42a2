// Package page encodes whole HTML documents for pagelock.
//
// EncodeDocument extracts the marked sections of a page, encrypts them as one
// envelope and embeds a configuration block the page runtime reads:
//
//	<script id="pagelock-config" type="application/json">
//	{"encryptedContent":"…","salt":"…","isRememberEnabled":true,"rememberDurationInDays":30,"mode":"document"}
//	</script>
//
// ExtractConfig is the matching narrow parser. It only understands the block
// written here and is not a general HTML parser.
package page
