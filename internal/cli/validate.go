package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/notify"
	"github.com/roach88/pulse/internal/pattern"
	"github.com/roach88/pulse/internal/tags"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Checked  int              `json:"checked"`
	Problems []PatternProblem `json:"problems,omitempty"`
}

// PatternProblem is a stored pattern that no longer compiles.
type PatternProblem struct {
	Registry string        `json:"registry"`
	Room     notify.RoomID `json:"room,omitempty"`
	Tag      string        `json:"tag,omitempty"`
	Pattern  string        `json:"pattern"`
	Reason   string        `json:"reason"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every stored pattern still compiles",
		Long: `Load the configured registries and compile every stored notification
pattern and tag regex. Patterns written by older versions or edited by hand
may no longer compile; such patterns are skipped when filtering posts.

Exits 1 when any stored pattern fails to compile.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	rt, err := openRuntime(opts, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer rt.Close()

	checked, problems := checkStoredPatterns(rt.notifications, rt.tags, formatter)
	if len(problems) > 0 {
		return outputValidationProblems(formatter, checked, problems)
	}
	return outputValidateSuccess(formatter, checked)
}

// checkStoredPatterns compiles every distinct stored pattern the way
// filtering does.
func checkStoredPatterns(n *notify.Store, t *tags.Store, formatter *OutputFormatter) (int, []PatternProblem) {
	var problems []PatternProblem
	checked := 0

	type key struct {
		room    notify.RoomID
		pattern string
	}
	seen := make(map[key]bool)
	for e := range n.List(nil, nil) {
		k := key{e.Room, e.Pattern}
		if seen[k] {
			continue
		}
		seen[k] = true
		checked++
		formatter.VerboseLog("Checking %s in room %s", e.Pattern, e.Room)

		if compiled := pattern.Compile(e.Pattern, pattern.CaseSensitive); !compiled.OK() {
			problems = append(problems, PatternProblem{
				Registry: notify.RegistryName,
				Room:     e.Room,
				Pattern:  e.Pattern,
				Reason:   compiled.Err.Reason,
			})
		}
	}

	for _, tag := range t.List() {
		checked++
		formatter.VerboseLog("Checking tag %s", tag.Name)

		if compiled := pattern.Compile(tag.Regex, pattern.CaseSensitive); !compiled.OK() {
			problems = append(problems, PatternProblem{
				Registry: tags.RegistryName,
				Tag:      tag.Name,
				Pattern:  tag.Regex,
				Reason:   compiled.Err.Reason,
			})
		}
	}

	return checked, problems
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, checked int) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, Checked: checked}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d stored patterns compile\n", checked)
	return nil
}

// outputValidationProblems outputs every failing pattern.
func outputValidationProblems(formatter *OutputFormatter, checked int, problems []PatternProblem) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:    false,
				Checked:  checked,
				Problems: problems,
			},
			Error: &CLIError{
				Code:    ErrCodeBadPattern,
				Message: fmt.Sprintf("%d stored pattern(s) do not compile", len(problems)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, p := range problems {
		if p.Tag != "" {
			fmt.Fprintf(formatter.Writer, "tag %s\n", p.Tag)
		} else {
			fmt.Fprintf(formatter.Writer, "room %s\n", p.Room)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", ErrCodeBadPattern, p.Pattern, p.Reason)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))
}
