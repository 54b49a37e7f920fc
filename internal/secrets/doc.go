// Package secrets detects and redacts credentials in query text.
//
// Detection runs on the gitleaks default ruleset. Every outbound query is
// scrubbed before any provider adapter sees it; findings keep rule IDs,
// positions, and counts but never the matched values.
package secrets
