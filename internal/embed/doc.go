// Package embed turns directive arguments into third-party embed markup.
//
// Each provider is a Handler variant: a pure validator paired with a renderer.
// Validation is purely syntactic. Rejected arguments never raise; they resolve
// to a short localized sentence that the document shows in place of the embed.
//
// Every dynamic value written into markup is HTML-escaped, including URLs that
// already passed their provider's shape check.
package embed
