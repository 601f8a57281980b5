package topic

// Edit is a user-authored change to one post. Edits only touch annotation
// fields; id, author, time, body and url are never modified.
type Edit interface {
	apply(p *Post)
}

// SetHighlight sets the highlight flag.
type SetHighlight struct{ On bool }

// ToggleHighlight flips the highlight flag.
type ToggleHighlight struct{}

// AddTag appends a tag unless it is blank or already present.
type AddTag struct{ Tag string }

// SetSummary replaces the summary text.
type SetSummary struct{ Text string }

// SetAISummary replaces the summary with AI output and marks it as such.
type SetAISummary struct{ Text string }

// SetAISummarize sets the ai_summarize marker.
type SetAISummarize struct{ On bool }

// ToggleAISummarize flips the ai_summarize marker.
type ToggleAISummarize struct{}

// AppendChat records one completed round trip: the user's message and the
// model's reply are appended together.
type AppendChat struct {
	User  string
	Reply string
}

func (e SetHighlight) apply(p *Post) { p.Highlighted = e.On }
func (ToggleHighlight) apply(p *Post) { p.Highlighted = !p.Highlighted }
func (e AddTag) apply(p *Post) { p.AddTag(e.Tag) }
func (e SetSummary) apply(p *Post) { p.Summary = e.Text }
func (e SetAISummarize) apply(p *Post) { p.AISummarize = e.On }
func (ToggleAISummarize) apply(p *Post) { p.AISummarize = !p.AISummarize }

func (e SetAISummary) apply(p *Post) {
	p.Summary = e.Text
	p.AISummarize = true
}

func (e AppendChat) apply(p *Post) {
	p.ChatHistory = append(p.ChatHistory, NewTurn(RoleUser, e.User), NewTurn(RoleModel, e.Reply))
}
