// Package printers renders quickmsg data for humans.
package printers

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/quickmsg/pkg/notes"
	"tableflip.dev/quickmsg/pkg/reminder"
	"tableflip.dev/quickmsg/pkg/templates"
	"tableflip.dev/quickmsg/pkg/usage"
)

const (
	timeLayout   = "Mon Jan 2 15:04"
	previewWidth = 48
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, one, many string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)
	_, _ = t.Fprint(pp.out(), title)
	noun := many
	if count == 1 {
		noun = one
	}
	_, _ = c.Fprintf(pp.out(), " - %d %s\n", count, noun)
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func (pp *PrettyPrint) table(header ...any) *uitable.Table {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	row := make([]any, 0, len(header)+1)
	if pp.ShowID {
		row = append(row, bold.Sprint("ID"))
	}
	for _, h := range header {
		row = append(row, bold.Sprint(h))
	}
	tbl.AddRow(row...)
	return tbl
}

func (pp *PrettyPrint) row(tbl *uitable.Table, id string, cells ...any) {
	if pp.ShowID {
		y := color.New(color.FgHiYellow, color.Italic, color.Faint)
		cells = append([]any{y.Sprint(id)}, cells...)
	}
	tbl.AddRow(cells...)
}

func (pp *PrettyPrint) flush(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Categories lists categories with their shortcut and message count.
func (pp *PrettyPrint) Categories(doc *templates.Document) {
	pp.TitleWithCount("Categories", len(doc.Categories), "category", "categories")
	tbl := pp.table("Name", "Shortcut", "Messages")
	for _, c := range doc.Categories {
		pp.row(tbl, c.ID, c.Name, c.Shortcut, strconv.Itoa(len(doc.MessagesIn(c.ID))))
	}
	pp.flush(tbl)
}

// Messages lists one category's messages in order.
func (pp *PrettyPrint) Messages(category string, msgs []templates.Message) {
	pp.TitleWithCount(category, len(msgs), "message", "messages")
	if len(msgs) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("#", "Title", "Preview")
	for _, m := range msgs {
		pp.row(tbl, m.ID, strconv.Itoa(m.Order+1), m.Title, Preview(m.Message, previewWidth))
	}
	pp.flush(tbl)
}

// Reminders lists reminders with a colored state.
func (pp *PrettyPrint) Reminders(items []reminder.Reminder) {
	pp.TitleWithCount("Reminders", len(items), "reminder", "reminders")
	if len(items) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("When", "Title", "Repeat", "Priority", "State")
	for _, r := range items {
		pp.row(tbl, r.ID, r.DateTime.Local().Format(timeLayout), r.Title,
			string(r.Recurrence), priority(r.Priority), state(r.State()))
	}
	pp.flush(tbl)
}

// Reminder prints a single reminder in detail.
func (pp *PrettyPrint) Reminder(r *reminder.Reminder) {
	pp.Title(r.Title)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("id", r.ID)
	tbl.AddRow("when", r.DateTime.Local().Format(time.RFC1123))
	tbl.AddRow("state", state(r.State()))
	tbl.AddRow("repeat", string(r.Recurrence))
	tbl.AddRow("priority", priority(r.Priority))
	if r.Description != "" {
		tbl.AddRow("notes", r.Description)
	}
	if r.URL != "" {
		tbl.AddRow("url", r.URL)
	}
	if r.SnoozeCount > 0 {
		tbl.AddRow("snoozed", strconv.Itoa(r.SnoozeCount))
	}
	pp.flush(tbl)
}

// Notes lists notes, marking pinned ones.
func (pp *PrettyPrint) Notes(items []notes.Note) {
	pp.TitleWithCount("Notes", len(items), "note", "notes")
	if len(items) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("", "Title", "Preview", "Updated")
	for _, n := range items {
		pin := " "
		if n.Pinned {
			pin = "*"
		}
		pp.row(tbl, n.ID, pin, n.Title, Preview(n.Content, previewWidth), n.UpdatedAt.Local().Format(timeLayout))
	}
	pp.flush(tbl)
}

// Usage lists the most used messages.
func (pp *PrettyPrint) Usage(stats []usage.Stat, titles map[string]string) {
	pp.TitleWithCount("Most used", len(stats), "message", "messages")
	if len(stats) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("Title", "Uses", "Last used")
	for _, s := range stats {
		pp.row(tbl, s.MessageID, titles[s.MessageID], strconv.Itoa(s.Count), s.LastUsed.Local().Format(timeLayout))
	}
	pp.flush(tbl)
}

func state(s reminder.State) string {
	switch s {
	case reminder.Active:
		return color.GreenString(s.String())
	case reminder.Fired:
		return color.New(color.FgHiRed, color.Bold).Sprint(s.String())
	default:
		return color.New(color.Faint).Sprint(s.String())
	}
}

func priority(p reminder.Priority) string {
	switch p {
	case reminder.PriorityHigh:
		return color.RedString(string(p))
	case reminder.PriorityLow:
		return color.New(color.Faint).Sprint(string(p))
	}
	return string(p)
}

// Preview flattens rich text to one line of at most width runes.
func Preview(html string, width int) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if width > 0 && len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return text
}
