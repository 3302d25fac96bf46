//go:build ignore

// mkfixed generates the methods of all fixed point types declared in
// fixed.go. A type named IntM_N or UIntM_N has M integer and N fractional
// bits, which must add up to the width of its underlying type.
package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"log"
	"os"
	"regexp"
	"strconv"
	"text/template"
)

const (
	declFile = "fixed.go"
	outFile  = "fixed_gen.go"
)

var methods = template.Must(template.New("methods").Parse(`
// {{ .Name }}U converts an integer.
func {{ .Name }}U(i int) {{ .Name }} { return {{ .Name }}(i << {{ .Frac }}) }

// {{ .Name }}F converts f, rounding to the nearest representable value.
func {{ .Name }}F(f float64) {{ .Name }} { return {{ .Name }}(math.Round(f * (1 << {{ .Frac }}))) }

func (x {{ .Name }}) Floor() int     { return int(x >> {{ .Frac }}) }
func (x {{ .Name }}) Ceil() int      { return int(({{ .Wide }}(x) + (1<<{{ .Frac }} - 1)) >> {{ .Frac }}) }
func (x {{ .Name }}) Float() float64 { return float64(x) / (1 << {{ .Frac }}) }

func (x {{ .Name }}) Mul(y {{ .Name }}) {{ .Name }} { return {{ .Name }}({{ .Wide }}(x) * {{ .Wide }}(y) >> {{ .Frac }}) }
func (x {{ .Name }}) Div(y {{ .Name }}) {{ .Name }} { return {{ .Name }}({{ .Wide }}(x) << {{ .Frac }} / {{ .Wide }}(y)) }

func (x {{ .Name }}) String() string { return strconv.FormatFloat(x.Float(), 'f', -1, 64) }
`))

var (
	nameRe = regexp.MustCompile(`^U?Int(\d+)_(\d+)$`)
	baseRe = regexp.MustCompile(`^u?int(8|16|32)$`)
)

type fixedType struct {
	Name string
	Wide string // twice the width of the underlying type
	Frac int
}

func parseType(name, base string) (t fixedType, err error) {
	n := nameRe.FindStringSubmatch(name)
	b := baseRe.FindStringSubmatch(base)
	if n == nil || b == nil {
		return t, fmt.Errorf("%s %s: not a fixed point type", name, base)
	}
	if (name[0] == 'U') != (base[0] == 'u') {
		return t, fmt.Errorf("%s %s: signedness mismatch", name, base)
	}
	intBits, _ := strconv.Atoi(n[1])
	frac, _ := strconv.Atoi(n[2])
	width, _ := strconv.Atoi(b[1])
	if intBits+frac != width {
		return t, fmt.Errorf("%s %s: %d+%d bits don't fill %d", name, base, intBits, frac, width)
	}

	wide := "int" + strconv.Itoa(2*width)
	if base[0] == 'u' {
		wide = "u" + wide
	}
	return fixedType{Name: name, Wide: wide, Frac: frac}, nil
}

func main() {
	log.Default().SetFlags(0)

	f, err := parser.ParseFile(token.NewFileSet(), declFile, nil, 0)
	if err != nil {
		log.Fatalln(err)
	}

	var src bytes.Buffer
	fmt.Fprintln(&src, "// Code generated by mkfixed.go. DO NOT EDIT.")
	fmt.Fprintln(&src)
	fmt.Fprintln(&src, "package fixed")
	fmt.Fprintln(&src, `import ("math"; "strconv")`)

	ast.Inspect(f, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		base, ok := ts.Type.(*ast.Ident)
		if !ok {
			return false
		}
		t, err := parseType(ts.Name.Name, base.Name)
		if err != nil {
			log.Fatalln(err)
		}
		if err := methods.Execute(&src, t); err != nil {
			log.Fatalln(err)
		}
		return false
	})

	out, err := format.Source(src.Bytes())
	if err != nil {
		log.Fatalln(err)
	}
	if err := os.WriteFile(outFile, out, 0o644); err != nil {
		log.Fatalln(err)
	}
}
