package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sapprep/internal/question"
	"github.com/abhisek/sapprep/internal/ui/theme"
)

// OptionList is a lettered answer selector. Single-answer questions keep
// one letter selected; multi-select questions toggle letters on and off.
type OptionList struct {
	Options   []question.Option
	Multi     bool
	Cursor    int
	Selection string // normalized letters, e.g. "BD"

	// Reveal switches the view to marking mode against Correct.
	Reveal  bool
	Correct string
}

// NewOptionList creates a selector for q preloaded with a saved answer.
func NewOptionList(q question.Question, selection string) OptionList {
	return OptionList{
		Options:   q.Options,
		Multi:     q.IsMultiSelect(),
		Selection: question.NormalizeAnswer(selection),
		Correct:   q.CorrectAnswer,
	}
}

// Update handles cursor movement and letter toggles.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.Reveal {
		return o, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if o.Cursor > 0 {
			o.Cursor--
		}
	case "down", "j":
		if o.Cursor < len(o.Options)-1 {
			o.Cursor++
		}
	case "space", " ", "x":
		if o.Cursor < len(o.Options) {
			o.toggle(o.Options[o.Cursor].Letter)
		}
	default:
		if len(key) == 1 {
			letter := strings.ToUpper(key)
			for i, opt := range o.Options {
				if opt.Letter == letter {
					o.Cursor = i
					o.toggle(letter)
					break
				}
			}
		}
	}
	return o, nil
}

func (o *OptionList) toggle(letter string) {
	if o.Multi {
		o.Selection = question.ToggleLetter(o.Selection, letter)
		return
	}
	if o.Selection == letter {
		o.Selection = ""
	} else {
		o.Selection = letter
	}
}

// IsSelected reports whether letter is part of the selection.
func (o OptionList) IsSelected(letter string) bool {
	return letter != "" && strings.Contains(o.Selection, letter)
}

// View renders the options wrapped to width.
func (o OptionList) View(width int) string {
	var b strings.Builder
	textWidth := max(width-8, 20)

	for i, opt := range o.Options {
		mark := "( )"
		if o.Multi {
			mark = "[ ]"
		}
		if o.IsSelected(opt.Letter) {
			mark = "(•)"
			if o.Multi {
				mark = "[x]"
			}
		}
		prefix := "  "
		if i == o.Cursor && !o.Reveal {
			prefix = "▸ "
		}

		style := theme.Unselected
		switch {
		case o.Reveal && strings.Contains(o.Correct, opt.Letter):
			style = theme.Correct
		case o.Reveal && o.IsSelected(opt.Letter):
			style = theme.Incorrect
		case o.Reveal:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Cursor:
			style = theme.Selected
		}

		head := fmt.Sprintf("%s%s %s. ", prefix, mark, opt.Letter)
		body := lipgloss.NewStyle().Width(textWidth - lipgloss.Width(head)).Render(opt.Text)
		b.WriteString(style.Render(lipgloss.JoinHorizontal(lipgloss.Top, head, body)))
		b.WriteString("\n")
	}
	return b.String()
}
