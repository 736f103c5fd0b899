package domain

import "strings"

// Template is an immutable-once-created follow-up rule binding. Stage and
// offset are fixed at creation; only Content and Active may change.
type Template struct {
	Key           string
	Stage         Stage
	OffsetSeconds int64
	Content       string
	Active        bool
}

// RenderContent substitutes the {name} placeholder with the lead's display name.
func RenderContent(content, name string) string {
	return strings.ReplaceAll(content, "{name}", name)
}
