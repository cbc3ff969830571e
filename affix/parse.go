package affix

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// ParseError describes a grammar violation in an affix or dictionary
// source, with enough context to locate the offending line.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
}

// EncodingError is returned when a source declares a character
// encoding that cannot be decoded.
type EncodingError struct {
	Source   string
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: unsupported encoding %q", e.Source, e.Encoding)
}

// Parse reads an affix source. The name is used in errors only.
//
// Supported directives: SET, TRY, KEY, WORDCHARS, FLAG, PFX, SFX.
// Unknown directives and malformed rule lines fail with a ParseError,
// an unsupported SET encoding fails with an EncodingError.
func Parse(name string, src []byte) (*Table, error) {
	src, encoding, err := decodeSource(name, src)
	if err != nil {
		return nil, err
	}

	t := Table{
		name:     name,
		encoding: encoding,
		classes:  make(map[rune]*Class),
	}

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lineNo  int
		current *Class
		pending int
	)

	fail := func(format string, a ...any) error {
		return &ParseError{
			Source: name,
			Line:   lineNo,
			Msg:    fmt.Sprintf(format, a...),
		}
	}

	for sc.Scan() {
		lineNo++

		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		directive := fields[0]

		if pending > 0 {
			if directive != kindDirective(current.Kind) {
				return nil, fail("expected %d more %s rules for class %q",
					pending, current.Kind, current.Flag)
			}

			rule, err := parseRule(current, fields)
			if err != nil {
				return nil, fail("%v", err)
			}

			current.Rules = append(current.Rules, rule)

			switch current.Kind {
			case Prefix:
				t.prefixes = append(t.prefixes, rule)
			case Suffix:
				t.suffixes = append(t.suffixes, rule)
			}

			pending--

			continue
		}

		switch directive {
		case "SET":
			// Handled up front by decodeSource.
		case "TRY":
			if len(fields) < 2 {
				return nil, fail("TRY needs a character list")
			}

			t.try = fields[1]
		case "KEY":
			if len(fields) < 2 {
				return nil, fail("KEY needs a keyboard layout")
			}

			t.keyRows = strings.Split(fields[1], "|")
		case "WORDCHARS":
			if len(fields) < 2 {
				return nil, fail("WORDCHARS needs a character list")
			}

			t.wordChars = fields[1]
		case "FLAG":
			if len(fields) < 2 {
				return nil, fail("FLAG needs a mode")
			}

			// Single character flags only. UTF-8 is the same
			// thing as far as we're concerned, flags are runes.
			if fields[1] != "UTF-8" {
				return nil, fail("unsupported flag mode %q", fields[1])
			}
		case "PFX", "SFX":
			kind := Suffix
			if directive == "PFX" {
				kind = Prefix
			}

			class, count, err := parseClassHeader(kind, fields)
			if err != nil {
				return nil, fail("%v", err)
			}

			existing, ok := t.classes[class.Flag]
			if ok {
				if existing.Kind != class.Kind {
					return nil, fail(
						"class %q redeclared as %s, was %s",
						class.Flag, class.Kind, existing.Kind)
				}

				if existing.CrossProduct != class.CrossProduct {
					return nil, fail(
						"class %q redeclared with conflicting cross-product flag",
						class.Flag)
				}

				current = existing
			} else {
				t.classes[class.Flag] = class
				current = class
			}

			pending = count
		default:
			return nil, fail("unknown directive %q", directive)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read affix source %q: %w", name, err)
	}

	if pending > 0 {
		return nil, &ParseError{
			Source: name,
			Line:   lineNo,
			Msg: fmt.Sprintf("missing %d %s rules for class %q",
				pending, current.Kind, current.Flag),
		}
	}

	return &t, nil
}

func kindDirective(k Kind) string {
	if k == Prefix {
		return "PFX"
	}

	return "SFX"
}

// parseClassHeader reads "PFX A Y 1" style lines.
func parseClassHeader(kind Kind, fields []string) (*Class, int, error) {
	if len(fields) != 4 {
		return nil, 0, fmt.Errorf(
			"%s header needs flag, cross-product flag, and rule count",
			fields[0])
	}

	flag := []rune(fields[1])
	if len(flag) != 1 {
		return nil, 0, fmt.Errorf("flag %q is not a single character", fields[1])
	}

	var cross bool

	switch fields[2] {
	case "Y":
		cross = true
	case "N":
		cross = false
	default:
		return nil, 0, fmt.Errorf(
			"cross-product flag must be Y or N, got %q", fields[2])
	}

	count, err := strconv.Atoi(fields[3])
	if err != nil || count < 0 {
		return nil, 0, fmt.Errorf("invalid rule count %q", fields[3])
	}

	return &Class{
		Flag:         flag[0],
		Kind:         kind,
		CrossProduct: cross,
	}, count, nil
}

// parseRule reads "SFX S y ies [^aeiou]y" style lines.
func parseRule(class *Class, fields []string) (Rule, error) {
	if len(fields) < 4 {
		return Rule{}, fmt.Errorf(
			"%s rule needs flag, strip, and append fields", fields[0])
	}

	flag := []rune(fields[1])
	if len(flag) != 1 || flag[0] != class.Flag {
		return Rule{}, fmt.Errorf(
			"rule flag %q doesn't match class %q", fields[1], class.Flag)
	}

	strip := fields[2]
	if strip == "0" {
		strip = ""
	}

	// The append field may carry a continuation class after a
	// slash. Continuation classes are not supported, the bare
	// affix is kept.
	app, _, _ := strings.Cut(fields[3], "/")
	if app == "0" {
		app = ""
	}

	condSrc := "."
	if len(fields) > 4 && !strings.HasPrefix(fields[4], "#") {
		condSrc = fields[4]
	}

	cond, err := compileCondition(condSrc)
	if err != nil {
		return Rule{}, err
	}

	if strip != "" {
		// The strip part must be removable where the rule
		// attaches, so the condition has to permit it.
		if !cond.match([]rune(strip), class.Kind) && len([]rune(strip)) >= len(cond.parts) {
			return Rule{}, fmt.Errorf(
				"strip %q can never satisfy condition %q", strip, condSrc)
		}
	}

	return Rule{
		Flag:         class.Flag,
		Kind:         class.Kind,
		Strip:        strip,
		Append:       app,
		CrossProduct: class.CrossProduct,
		cond:         cond,
	}, nil
}

// decodeSource finds the SET directive and transcodes the source to
// UTF-8 when another encoding is declared.
func decodeSource(name string, src []byte) ([]byte, string, error) {
	declared := "UTF-8"

	// Directives are ASCII, so scanning the raw bytes is safe
	// regardless of the declared encoding.
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "SET" {
			declared = fields[1]

			break
		}
	}

	if strings.EqualFold(declared, "UTF-8") {
		return src, "UTF-8", nil
	}

	enc, err := htmlindex.Get(normalizeEncodingName(declared))
	if err != nil {
		return nil, "", &EncodingError{Source: name, Encoding: declared}
	}

	decoded, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return nil, "", &EncodingError{Source: name, Encoding: declared}
	}

	return decoded, declared, nil
}

// normalizeEncodingName maps Hunspell encoding names to the IANA
// names that htmlindex resolves, e.g. ISO8859-1 to iso-8859-1.
func normalizeEncodingName(name string) string {
	n := strings.ToLower(name)

	if rest, ok := strings.CutPrefix(n, "iso8859-"); ok {
		return "iso-8859-" + rest
	}

	if rest, ok := strings.CutPrefix(n, "microsoft-cp"); ok {
		return "windows-" + rest
	}

	return n
}
