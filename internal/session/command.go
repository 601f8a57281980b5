package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one user action against a session.
type Command interface {
	command()
}

type (
	FirstPage struct{}
	PrevPage  struct{}
	NextPage  struct{}
	LastPage  struct{}

	// GoToPage jumps to an explicit page of the current (filtered) list.
	GoToPage struct{ N int }

	// JumpToPost shows the post at a 1-based canonical index, clearing any
	// filter first.
	JumpToPost struct{ Index int }

	FilterByAuthor struct{ Author string }
	FilterByTag    struct{ Tag string }
	ClearFilter    struct{}

	ToggleHighlight struct{ PostID int64 }
	ToggleAIMark    struct{ PostID int64 }
)

// AddTag appends a tag to a post.
type AddTag struct {
	PostID int64
	Tag    string
}

// EditSummary replaces a post's summary with user text.
type EditSummary struct {
	PostID int64
	Text   string
}

func (FirstPage) command()       {}
func (PrevPage) command()        {}
func (NextPage) command()        {}
func (LastPage) command()        {}
func (GoToPage) command()        {}
func (JumpToPost) command()      {}
func (FilterByAuthor) command()  {}
func (FilterByTag) command()     {}
func (ClearFilter) command()     {}
func (ToggleHighlight) command() {}
func (AddTag) command()          {}
func (EditSummary) command()     {}
func (ToggleAIMark) command()    {}

// Action names accepted by ParseCommand.
const (
	ActionFirst     = "first"
	ActionPrev      = "prev"
	ActionNext      = "next"
	ActionLast      = "last"
	ActionPage      = "page"
	ActionJump      = "jump"
	ActionAuthor    = "author"
	ActionTag       = "tag"
	ActionClear     = "clear"
	ActionHighlight = "highlight"
	ActionAddTag    = "add_tag"
	ActionSummary   = "summary"
	ActionAIMark    = "ai_mark"
)

// InputError reports a command that could not be built from user input.
type InputError struct {
	Action string
	Msg    string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Msg)
}

// ParseCommand builds a command from a form or JSON request.
func ParseCommand(action, value string, postID int64) (Command, error) {
	number := func() (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, &InputError{Action: action, Msg: fmt.Sprintf("%q is not a number", value)}
		}
		return n, nil
	}
	needPost := func() error {
		if postID == 0 {
			return &InputError{Action: action, Msg: "post_id is required"}
		}
		return nil
	}

	switch action {
	case ActionFirst:
		return FirstPage{}, nil
	case ActionPrev:
		return PrevPage{}, nil
	case ActionNext:
		return NextPage{}, nil
	case ActionLast:
		return LastPage{}, nil
	case ActionPage:
		n, err := number()
		if err != nil {
			return nil, err
		}
		return GoToPage{N: n}, nil
	case ActionJump:
		n, err := number()
		if err != nil {
			return nil, err
		}
		return JumpToPost{Index: n}, nil
	case ActionAuthor:
		if value == "" {
			return nil, &InputError{Action: action, Msg: "author is required"}
		}
		return FilterByAuthor{Author: value}, nil
	case ActionTag:
		if value == "" {
			return nil, &InputError{Action: action, Msg: "tag is required"}
		}
		return FilterByTag{Tag: value}, nil
	case ActionClear:
		return ClearFilter{}, nil
	case ActionHighlight:
		if err := needPost(); err != nil {
			return nil, err
		}
		return ToggleHighlight{PostID: postID}, nil
	case ActionAddTag:
		if err := needPost(); err != nil {
			return nil, err
		}
		return AddTag{PostID: postID, Tag: value}, nil
	case ActionSummary:
		if err := needPost(); err != nil {
			return nil, err
		}
		return EditSummary{PostID: postID, Text: value}, nil
	case ActionAIMark:
		if err := needPost(); err != nil {
			return nil, err
		}
		return ToggleAIMark{PostID: postID}, nil
	}
	return nil, &InputError{Action: action, Msg: "unknown action"}
}
