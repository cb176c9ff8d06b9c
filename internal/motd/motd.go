// Package motd cleans Minecraft server descriptions for plain text output.
package motd

import "regexp"

// formatCode matches a section sign, either literal or in its escaped text form,
// followed by the single color/style character it applies.
var formatCode = regexp.MustCompile(`(?:§|\\u00[Aa]7)\w`)

// Strip removes every formatting escape code from text.
func Strip(text string) string {
	if text == "" {
		return ""
	}

	return formatCode.ReplaceAllString(text, "")
}
