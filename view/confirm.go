package view

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-booking-client/resource"
)

var _ resource.Confirmer = (*PromptConfirmer)(nil)

// PromptConfirmer asks a y/N question on a terminal. Anything but y or yes
// declines.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
