// Package session implements the per-correspondent state machine and
// UI composer (§4.5, H): the part of the system that turns a verb
// dispatch's plain-text reply into one or more radio frames that never
// split a UTF-8 code point, always carry the trailing prompt on their
// final chunk, and never exceed the configured frame budget.
package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const ellipsis = "…"

// Prompt renders the trailing prompt suffix for an authenticated user
// at the given numeric level, or the unauthenticated prompt when
// username is empty (§4.5: "username (lvlN)> " or "unauth>").
func Prompt(username string, level int) string {
	if username == "" {
		return "unauth>"
	}
	return fmt.Sprintf("%s (lvl%d)> ", username, level)
}

// FrameLen returns the exact UTF-8 byte length Compose would produce
// for body+prompt with no truncation — the byte-accurate test helper
// §4.5 requires ("must be available for unit testing").
func FrameLen(body, prompt string) int {
	return len(body) + len(prompt)
}

// Compose renders body followed by prompt into a single frame of at
// most budget bytes, truncating body with an ellipsis marker if
// necessary so the prompt is always fully present at the end. budget
// is the frame's total UTF-8 payload limit, prompt included (§4.5,
// rule 5: "the prompt length as part of the budget, not overhead
// added later").
func Compose(body, prompt string, budget int) string {
	full := body + prompt
	if len(full) <= budget {
		return full
	}
	room := budget - len(prompt) - len(ellipsis)
	if room < 0 {
		// Budget too small even for prompt+ellipsis alone; truncate the
		// prompt itself as a last resort rather than panic or overflow.
		return truncateToBytes(prompt, budget)
	}
	return truncateToBytes(body, room) + ellipsis + prompt
}

// truncateToBytes cuts s to at most n bytes without splitting a
// multi-byte UTF-8 code point (§4.5 rule 1 / §8 invariant 5).
func truncateToBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Paginate splits items into pages whose rendered total length (items
// joined by "\n") plus footer plus prompt fits budget (§4.5 rule 3).
// It returns every page at once; callers track the cursor themselves
// (L advances to the next page).
func Paginate(items []string, prompt string, budget int) [][]string {
	var pages [][]string
	var cur []string
	curLen := 0
	footer := "\nL for more"
	for _, item := range items {
		addLen := len(item) + 1 // "\n"
		if curLen+addLen+len(footer)+len(prompt) > budget && len(cur) > 0 {
			pages = append(pages, cur)
			cur = nil
			curLen = 0
		}
		cur = append(cur, item)
		curLen += addLen
	}
	if len(cur) > 0 {
		pages = append(pages, cur)
	}
	return pages
}

// RenderPage joins one Paginate page into a frame body, appending the
// "more" footer unless this is the final page.
func RenderPage(page []string, isLast bool) string {
	body := strings.Join(page, "\n")
	if !isLast {
		body += "\nL for more"
	}
	return body
}

// ComposeMultiFrame splits a long logical response (e.g. HELP+) into
// an ordered sequence of frames, each within budget, with the prompt
// appended only to the final frame (§4.5 rule 4).
func ComposeMultiFrame(body, prompt string, budget int) []string {
	maxChunk := budget - len(prompt)
	if maxChunk <= 0 {
		return []string{Compose(body, prompt, budget)}
	}
	var frames []string
	remaining := body
	for len(remaining) > maxChunk {
		cut := maxChunk
		for cut > 0 && !utf8.RuneStart(remaining[cut]) {
			cut--
		}
		frames = append(frames, remaining[:cut])
		remaining = remaining[cut:]
	}
	frames = append(frames, remaining+prompt)
	return frames
}
