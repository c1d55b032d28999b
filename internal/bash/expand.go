package bash

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Expander substitutes $NAME, ${NAME} and arithmetic expansions inside
// single tokens. Words are expanded the way a here-document body is, so
// there is no quote removal, globbing or field splitting.
type Expander struct {
	// Environ returns the variables visible to expansions. It defaults to
	// the process environment, read at expansion time.
	Environ func() []string

	logger *zap.Logger
	parser *syntax.Parser
}

func NewExpander(logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{
		Environ: os.Environ,
		logger:  logger,
		parser:  syntax.NewParser(),
	}
}

// Fields expands every token. A token that expands to nothing is dropped.
// Tokens that cannot be parsed or expanded are passed through unchanged.
func (e *Expander) Fields(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}

	cfg := &expand.Config{Env: expand.ListEnviron(e.Environ()...)}
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		value, err := e.word(cfg, tok)
		if err != nil {
			e.logger.Debug("leaving token unexpanded", zap.String("token", tok), zap.Error(err))
			out = append(out, tok)
			continue
		}
		if value == "" && tok != "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

// Word expands a single token.
func (e *Expander) Word(tok string) (string, error) {
	cfg := &expand.Config{Env: expand.ListEnviron(e.Environ()...)}
	return e.word(cfg, tok)
}

func (e *Expander) word(cfg *expand.Config, tok string) (string, error) {
	if !strings.Contains(tok, "$") {
		return tok, nil
	}
	w, err := e.parser.Document(strings.NewReader(tok))
	if err != nil {
		return "", err
	}
	return expand.Document(cfg, w)
}
