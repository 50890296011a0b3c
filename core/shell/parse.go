package shell

// Stream selects the target of a redirection by file descriptor.
type Stream int

const (
	Stdout Stream = 1
	Stderr Stream = 2
)

// RedirectionSpec is one parsed redirection on a stage.
type RedirectionSpec struct {
	Stream Stream
	Path   string
	Append bool
}

// CommandStage is one segment of a pipeline: the argument list plus its
// redirections, in the order written.
type CommandStage struct {
	Argv      []string
	Redirects []RedirectionSpec
}

// Pipeline is the parsed form of one input line.
type Pipeline struct {
	Stages []CommandStage
}

var redirOps = map[string]RedirectionSpec{
	">":   {Stream: Stdout},
	"1>":  {Stream: Stdout},
	">>":  {Stream: Stdout, Append: true},
	"1>>": {Stream: Stdout, Append: true},
	"2>":  {Stream: Stderr},
	"2>>": {Stream: Stderr, Append: true},
}

// Parse groups tokens into pipeline stages split on | operators and
// extracts the redirections of each stage. Callers skip empty lines;
// zero tokens parse as an empty stage error.
func Parse(tokens []Token) (*Pipeline, error) {
	var stages []CommandStage
	var group []Token

	flush := func() error {
		stage, err := parseStage(group)
		if err != nil {
			return err
		}
		stages = append(stages, stage)
		group = group[:0]
		return nil
	}

	for _, tok := range tokens {
		if tok.Op && tok.Val == "|" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		group = append(group, tok)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	// The pipe carries every non-terminal stage's stdout; an explicit
	// redirection of the same stream has nowhere to go.
	for _, stage := range stages[:len(stages)-1] {
		for _, redirect := range stage.Redirects {
			if redirect.Stream == Stdout {
				return nil, &SyntaxError{Msg: "stdout redirection on non-terminal pipeline stage"}
			}
		}
	}

	return &Pipeline{Stages: stages}, nil
}

func parseStage(tokens []Token) (CommandStage, error) {
	var stage CommandStage

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !tok.Op {
			stage.Argv = append(stage.Argv, tok.Val)
			continue
		}

		spec := redirOps[tok.Val]
		if i+1 >= len(tokens) || tokens[i+1].Op {
			return CommandStage{}, &SyntaxError{Msg: "missing redirection target"}
		}
		spec.Path = tokens[i+1].Val
		stage.Redirects = append(stage.Redirects, spec)
		i++
	}

	if len(stage.Argv) == 0 {
		return CommandStage{}, &SyntaxError{Msg: "empty pipeline stage"}
	}
	return stage, nil
}
