package journal

import (
	"strings"
)

// NoteKind tags a one-line remark attached to a session.
type NoteKind string

const (
	NoteDecision NoteKind = "decision"
	NoteGotcha   NoteKind = "gotcha"
	NoteCatch    NoteKind = "catch"
)

// Label is the bold prefix the note is rendered with.
func (k NoteKind) Label() string {
	switch k {
	case NoteDecision:
		return "Decision"
	case NoteGotcha:
		return "Gotcha"
	case NoteCatch:
		return "Catch"
	}
	if k == "" {
		return "Note"
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ParseNoteKind accepts the known kinds case-insensitively.
func ParseNoteKind(s string) (NoteKind, bool) {
	switch NoteKind(strings.ToLower(strings.TrimSpace(s))) {
	case NoteDecision:
		return NoteDecision, true
	case NoteGotcha:
		return NoteGotcha, true
	case NoteCatch:
		return NoteCatch, true
	}
	return "", false
}

type Note struct {
	Kind NoteKind `yaml:"kind" json:"kind"`
	Text string   `yaml:"text" json:"text"`
}

// Entry is the approved content of one session. The session number is not
// part of it; it is assigned when the entry is appended.
type Entry struct {
	Time     string   `yaml:"time" json:"time"`
	Topic    string   `yaml:"topic" json:"topic"`
	WorkedOn []string `yaml:"worked_on" json:"worked_on"`
	Learning []string `yaml:"learning,omitempty" json:"learning,omitempty"`
	Notes    []Note   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Normalized trims whitespace and drops empty bullets and notes.
func (e Entry) Normalized() Entry {
	out := Entry{
		Time:     strings.TrimSpace(e.Time),
		Topic:    strings.TrimSpace(e.Topic),
		WorkedOn: compact(e.WorkedOn),
		Learning: compact(e.Learning),
	}
	for _, n := range e.Notes {
		text := strings.TrimSpace(n.Text)
		if text == "" {
			continue
		}
		out.Notes = append(out.Notes, Note{Kind: n.Kind, Text: text})
	}
	return out
}

// Validate checks the fields every session must carry.
func (e Entry) Validate() error {
	e = e.Normalized()
	if e.Time == "" {
		return invalidf("session time is required")
	}
	if strings.ContainsAny(e.Time, "\r\n") {
		return invalidf("session time must be a single line")
	}
	if e.Topic == "" {
		return invalidf("session topic is required")
	}
	if strings.ContainsAny(e.Topic, "\r\n") {
		return invalidf("session topic must be a single line")
	}
	if len(e.WorkedOn) == 0 {
		return invalidf("at least one worked-on item is required")
	}
	for _, n := range e.Notes {
		if _, ok := ParseNoteKind(string(n.Kind)); !ok {
			return invalidf("unknown note kind %q (want decision, gotcha or catch)", n.Kind)
		}
	}
	return nil
}

func compact(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
