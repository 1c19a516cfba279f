package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/stockroom/internal/models"
)

// clearValue blanks an optional field in the edit form.
const clearValue = "-"

// Prompter reads answers line by line. End of input cancels the question
// being asked.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the trimmed answer. ok is false at end of input.
func (p *Prompter) Line(label string) (string, bool) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// PromptLogin asks for the account and password. An account given on the
// command line skips the selection.
func (p *Prompter) PromptLogin(users []string, username string) (string, string, bool) {
	if username == "" {
		for i, u := range users {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, u)
		}
		answer, ok := p.Line("Select user: ")
		if !ok {
			return "", "", false
		}
		username = pick(users, answer)
	}

	password, ok := p.Line("Password: ")
	if !ok {
		return "", "", false
	}
	return username, password, true
}

// pick accepts a list number or a literal name.
func pick(users []string, answer string) string {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(users) {
		return users[n-1]
	}
	return answer
}

// PromptItem collects all three item fields and asks once whether to submit
// them. An empty answer keeps the value in brackets. ok is false when the
// user declines or input ends; nothing is submitted then.
func (p *Prompter) PromptItem(title string, defaults models.ItemForm) (models.ItemForm, bool) {
	fmt.Fprintln(p.out, title)
	form := defaults

	fields := []struct {
		label string
		dst   *string
		clear bool
	}{
		{"Name", &form.Name, false},
		{"Description", &form.Description, true},
		{"Quantity", &form.Quantity, false},
	}
	for _, f := range fields {
		label := f.label + ": "
		if *f.dst != "" {
			label = fmt.Sprintf("%s [%s]: ", f.label, *f.dst)
		}
		answer, ok := p.Line(label)
		if !ok {
			return models.ItemForm{}, false
		}
		switch {
		case f.clear && answer == clearValue:
			*f.dst = ""
		case answer != "":
			*f.dst = answer
		}
	}

	if !p.Confirm("Save? [Y/n]: ", true) {
		return models.ItemForm{}, false
	}
	return form, true
}

// Confirm asks a yes/no question. An empty answer picks def.
func (p *Prompter) Confirm(question string, def bool) bool {
	answer, ok := p.Line(question)
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}
