package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	pipeToken       = "|"
	backgroundToken = "&"
)

var ErrSyntax = errors.New("syntax error")

// Stage is one program invocation of a pipeline with its redirections
// already removed from Args.
type Stage struct {
	Args []string

	// Input replaces standard input when set.
	Input string
	// Output replaces standard output when set, taking precedence over the
	// pipe to the next stage. Append selects >> over >.
	Output string
	Append bool
}

type Pipeline struct {
	Stages     []*Stage
	Background bool
}

// ParsePipeline partitions args at pipe tokens, strips a trailing
// background marker from the last stage and extracts <, > and >> from every
// stage. Operators may stand alone or be attached to their target (>out).
// A redirection operator in command position is an ordinary word.
func ParsePipeline(args []string) (*Pipeline, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSyntax)
	}

	var groups [][]string
	start := 0
	for i, tok := range args {
		if tok == pipeToken {
			groups = append(groups, args[start:i])
			start = i + 1
		}
	}
	groups = append(groups, args[start:])

	p := &Pipeline{Stages: make([]*Stage, 0, len(groups))}

	last := groups[len(groups)-1]
	if n := len(last); n > 0 && last[n-1] == backgroundToken {
		p.Background = true
		groups[len(groups)-1] = last[:n-1]
	}

	for _, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("%w near unexpected token `%s'", ErrSyntax, pipeToken)
		}
		stage, err := parseStage(group)
		if err != nil {
			return nil, err
		}
		p.Stages = append(p.Stages, stage)
	}
	return p, nil
}

func parseStage(words []string) (*Stage, error) {
	stage := &Stage{Args: []string{words[0]}}

	for i := 1; i < len(words); i++ {
		tok := words[i]

		var op, target string
		switch {
		case tok == ">>" || tok == ">" || tok == "<":
			if i+1 >= len(words) {
				return nil, fmt.Errorf("%w near unexpected token `newline'", ErrSyntax)
			}
			op, target = tok, words[i+1]
			i++
		case strings.HasPrefix(tok, ">>"):
			op, target = ">>", tok[2:]
		case strings.HasPrefix(tok, ">"):
			op, target = ">", tok[1:]
		case strings.HasPrefix(tok, "<"):
			op, target = "<", tok[1:]
		default:
			stage.Args = append(stage.Args, tok)
			continue
		}

		if target == "" {
			return nil, fmt.Errorf("%w near unexpected token `%s'", ErrSyntax, op)
		}

		// Later redirections of the same descriptor win.
		switch op {
		case "<":
			stage.Input = target
		case ">":
			stage.Output, stage.Append = target, false
		case ">>":
			stage.Output, stage.Append = target, true
		}
	}
	return stage, nil
}

// String renders the stage back into words, redirections last.
func (s *Stage) String() string {
	words := append([]string(nil), s.Args...)
	if s.Input != "" {
		words = append(words, "<", s.Input)
	}
	if s.Output != "" {
		op := ">"
		if s.Append {
			op = ">>"
		}
		words = append(words, op, s.Output)
	}
	return strings.Join(words, " ")
}
