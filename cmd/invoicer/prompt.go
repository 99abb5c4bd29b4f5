package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// prompter reads interactive input line by line. Kept behind a struct so the
// run flow can be driven from a script in tests.
type prompter struct {
	in *bufio.Scanner
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewScanner(os.Stdin)}
}

func (p *prompter) line(label string) string {
	fmt.Print(label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// lineDefault returns def when the user just presses enter.
func (p *prompter) lineDefault(label, def string) string {
	v := p.line(fmt.Sprintf("%s (default: %s): ", label, def))
	if v == "" {
		return def
	}
	return v
}

// positiveInt keeps asking until it gets an integer greater than zero.
func (p *prompter) positiveInt(label string) (int, bool) {
	for {
		v := p.line(label)
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			fmt.Println("Please enter a valid number.")
			continue
		}
		if n <= 0 {
			fmt.Println("Value must be greater than 0.")
			continue
		}
		return n, true
	}
}

func (p *prompter) confirm(label string) bool {
	v := strings.ToLower(p.line(label + " (y/n): "))
	return v == "y" || v == "yes"
}
