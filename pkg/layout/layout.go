package layout

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
	"github.com/telekom/infoasst-navshell/pkg/navigation"
)

// Page holds everything the layout document needs.
type Page struct {
	Title         string
	LogoURL       string
	LogoAlt       string
	WarningBanner string
	ActivePath    string
	MountID       string
	// Script is the optional entry module of the routed page bundle.
	Script string
	View   navigation.View
}

var (
	layoutTemplate = template.New("layout").Funcs(sprig.FuncMap())

	//go:embed templates/layout.html
	layoutTemplateRaw string
)

func init() {
	if _, err := layoutTemplate.Parse(layoutTemplateRaw); err != nil {
		panic(err)
	}
}

// Render writes the full layout document for p to w. Output is buffered so
// nothing is written when execution fails.
func Render(w io.Writer, p Page) error {
	b := bytes.Buffer{}
	if err := layoutTemplate.Execute(&b, p); err != nil {
		return err
	}
	_, err := b.WriteTo(w)
	return err
}
