package templates

// DefaultDocument returns the starter document written on first use and on
// reset.
func DefaultDocument() *Document {
	return &Document{
		Version: CurrentVersion,
		Categories: []Category{
			{ID: "cat_general", Name: "General", Shortcut: "Ctrl+Shift+1"},
			{ID: "cat_greetings", Name: "Greetings", Shortcut: "Ctrl+Shift+2"},
			{ID: "cat_followups", Name: "Follow-ups", Shortcut: "Ctrl+Shift+3"},
		},
		Messages: []Message{
			{
				ID:         "msg_thanks",
				Title:      "Thanks",
				Message:    "<p>Thanks for the update, I will take a look shortly.</p>",
				CategoryID: "cat_general",
				Order:      0,
			},
			{
				ID:         "msg_welcome",
				Title:      "Welcome",
				Message:    "<p>Hi there, thanks for reaching out!</p>",
				CategoryID: "cat_greetings",
				Order:      0,
			},
			{
				ID:         "msg_checkin",
				Title:      "Checking in",
				Message:    "<p>Just following up on my previous message. Any news?</p>",
				CategoryID: "cat_followups",
				Order:      0,
			},
		},
	}
}

const fallbackCategoryID = "cat_general"
const fallbackCategoryName = "General"
