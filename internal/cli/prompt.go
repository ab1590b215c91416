package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/ligate/internal/planner"
)

// Concentration flags shared by plan, run and suggest.
type concFlags struct {
	vector float64
	insert float64
}

func (f *concFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.vector, "vector-conc", 0, "Vector DNA stock concentration (ng/µL)")
	cmd.Flags().Float64Var(&f.insert, "insert-conc", 0, "Insert DNA stock concentration (ng/µL)")
}

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolve returns the concentrations from flags, prompting for any that are
// missing when stdin is a terminal.
func (f *concFlags) resolve(cmd *cobra.Command, p *prompter) (vector, insert float64, err error) {
	vector, insert = f.vector, f.insert
	needVector := !cmd.Flags().Changed("vector-conc")
	needInsert := !cmd.Flags().Changed("insert-conc")
	if !needVector && !needInsert {
		return vector, insert, nil
	}
	if !stdinIsTerminal() {
		return 0, 0, fmt.Errorf("%w: --vector-conc and --insert-conc are required when stdin is not a terminal", planner.ErrInvalidInput)
	}

	if needVector {
		if vector, err = p.concentration("Vector"); err != nil {
			return 0, 0, err
		}
	}
	if needInsert {
		if insert, err = p.concentration("Insert"); err != nil {
			return 0, 0, err
		}
	}
	return vector, insert, nil
}

// prompter reads operator answers one line at a time. A command builds one
// and shares it, so buffered input is never split between readers.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
}

// concentration asks for a stock concentration in ng/µL.
func (p *prompter) concentration(name string) (float64, error) {
	_, _ = fmt.Fprintf(p.out, "Concentration of %s (ng/uL): ", name)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, fmt.Errorf("failed to read %s concentration: %w", strings.ToLower(name), err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s concentration %q is not a number", planner.ErrInvalidInput, strings.ToLower(name), strings.TrimSpace(line))
	}
	return v, nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) confirm(question string) bool {
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
