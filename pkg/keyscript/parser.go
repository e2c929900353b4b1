package keyscript

import (
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	ruleWhitespace = lexer.SimpleRule{Name: "Whitespace", Pattern: `[ \t]+`}
	ruleDuration   = lexer.SimpleRule{Name: "Duration", Pattern: `\d+(ns|us|µs|ms|s|m|h)`}
	ruleInt        = lexer.SimpleRule{Name: "Int", Pattern: `\d+`}
	ruleString     = lexer.SimpleRule{Name: "String", Pattern: `"(\\"|[^"])*"`}
	ruleIdent      = lexer.SimpleRule{Name: "Ident", Pattern: `[A-Za-z]\w*`}
	rulePunct      = lexer.SimpleRule{Name: "Punct", Pattern: `[-+#]`}
)

var statementLexer = lexer.MustSimple([]lexer.SimpleRule{
	ruleWhitespace,
	ruleDuration,
	ruleInt,
	ruleString,
	ruleIdent,
	rulePunct,
})

var statementParser = participle.MustBuild[Statement](
	participle.Lexer(statementLexer),
	participle.UseLookahead(2),
	participle.Elide(ruleWhitespace.Name),
	participle.Unquote("String"),
)

// Statement is one line of a script.
type Statement struct {
	Wait  *Duration       `parser:"  'wait' @Duration"`
	Click *ClickStatement `parser:"| @@"`
	Keys  []KeyStatement  `parser:"| @@+"`
}

type ClickStatement struct {
	Button string `parser:"'click' @Ident"`
	X      int    `parser:"@Int"`
	Y      int    `parser:"@Int"`
}

type KeyStatement struct {
	Action string `parser:"@('+' | '-')"`
	Key    KeyRef `parser:"@@"`
}

// KeyRef names a key either by canonical name or by raw code ("#192").
type KeyRef struct {
	Raw  *int    `parser:"  '#' @Int"`
	Name *string `parser:"| @(Ident | Int | String)"`
}

type Duration time.Duration

func (d *Duration) Capture(values []string) error {
	duration, err := time.ParseDuration(values[0])
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func ParseStatement(stmt string) (Statement, error) {
	result, err := statementParser.ParseString("", stmt)
	if err != nil {
		return Statement{}, err
	}
	return *result, nil
}
