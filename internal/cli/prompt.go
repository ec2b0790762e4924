package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// prompter asks setup questions on out and reads answers from in. Passwords
// are read without echo when in is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd, p.tty = int(f.Fd()), true
	}
	return p
}

// readLine returns the next answer. The error is io.EOF once input is
// exhausted, also when it comes with a final unterminated answer.
func (p *prompter) readLine() (string, error) {
	text, err := p.in.ReadString('\n')
	return strings.TrimSpace(text), err
}

// text returns def on an empty answer or end of input.
func (p *prompter) text(label, def string) string {
	fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	answer, _ := p.readLine()
	if answer == "" {
		return def
	}
	return answer
}

// positiveInt asks until it gets a positive integer. An empty answer takes
// def, unless input ended after an invalid answer.
func (p *prompter) positiveInt(label string, def int) (int, error) {
	var invalid string
	for {
		fmt.Fprintf(p.out, "%s [%d]: ", label, def)
		answer, err := p.readLine()
		if answer == "" {
			if err != nil && invalid != "" {
				return 0, fmt.Errorf("%s: %q is not a positive integer", label, invalid)
			}
			return def, nil
		}
		if n, convErr := strconv.Atoi(answer); convErr == nil && n > 0 {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a positive integer", label, answer)
		}
		invalid = answer
		fmt.Fprintln(p.out, "Please enter a positive integer.")
	}
}

// yesNo follows the same rules as positiveInt.
func (p *prompter) yesNo(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	var invalid string
	for {
		fmt.Fprintf(p.out, "%s (%s): ", label, hint)
		answer, err := p.readLine()
		switch strings.ToLower(answer) {
		case "":
			if err != nil && invalid != "" {
				return false, fmt.Errorf("%s: expected y or n, got %q", label, invalid)
			}
			return def, nil
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: expected y or n, got %q", label, answer)
		}
		invalid = answer
		fmt.Fprintln(p.out, "Enter y or n.")
	}
}

// lines reads lines until an empty one. With no input at all current is kept.
func (p *prompter) lines(current string) string {
	if strings.TrimSpace(current) != "" {
		fmt.Fprintf(p.out, "Current:\n%s\n", current)
	}
	var got []string
	for {
		fmt.Fprint(p.out, "> ")
		line, err := p.readLine()
		if line == "" {
			break
		}
		got = append(got, line)
		if err != nil {
			break
		}
	}
	if len(got) == 0 {
		return current
	}
	return strings.Join(got, "\n")
}

func (p *prompter) password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.tty {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		return string(b), err
	}
	text, err := p.readLine()
	if text != "" && errors.Is(err, io.EOF) {
		err = nil
	}
	return text, err
}

func (p *prompter) newPassword(label string) (string, error) {
	first, err := p.password(label)
	if err != nil {
		return "", err
	}
	second, err := p.password(label + " (confirm)")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	if strings.TrimSpace(first) == "" {
		return "", errors.New("password cannot be empty")
	}
	return first, nil
}
