// Package sources retrieves the documents a schema is generated from and
// parses the identifier lists (plugins, bases, extensions, interfaces) out of
// them. Every parser enforces a minimum count so that a restructured page
// fails loudly instead of producing a thinner schema.
package sources
