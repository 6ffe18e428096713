package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/size"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var (
	//go:embed assets/index.html
	indexTmpl string

	//go:embed assets/placeholder.svg
	placeholderTmpl string
)

type SizeChoice struct {
	ID       string
	Label    string
	Selected bool
}

type Params struct {
	Prompt     string
	Sizes      []SizeChoice
	Generating bool
	Image      string
	SizeLabel  string
}

// NewParams builds page parameters for the given form and result state.
func NewParams(prompt, sizeID string, generating bool, image string) Params {
	selected, ok := size.Lookup(sizeID)
	return Params{
		Prompt: prompt,
		Sizes: lo.Map(size.Options(), func(o size.Option, _ int) SizeChoice {
			return SizeChoice{ID: o.ID, Label: o.Label, Selected: o.ID == sizeID}
		}),
		Generating: generating,
		Image:      image,
		SizeLabel:  lo.Ternary(ok, selected.Label, sizeID),
	}
}

type PlaceholderParams struct {
	Width    int
	Height   int
	FontSize int
	Text     string
}

type Templator struct {
	index       *template.Template
	placeholder *template.Template
	once        sync.Once
}

func NewTemplator(*do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) init() {
	g.once.Do(func() {
		g.index = template.Must(template.New("index").Funcs(template.FuncMap{
			"imageURL": imageURL,
		}).Parse(indexTmpl))
		g.placeholder = template.Must(template.New("placeholder").Parse(placeholderTmpl))
	})
}

func (g *Templator) Page(ctx context.Context, params Params) ([]byte, error) {
	g.init()

	log := log.FromContextOrDiscard(ctx).WithGroup("templator")
	log.Debug("generating page", "generating", params.Generating)

	var data bytes.Buffer
	if err := g.index.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

func (g *Templator) Placeholder(ctx context.Context, params PlaceholderParams) ([]byte, error) {
	g.init()

	if params.FontSize == 0 {
		params.FontSize = lo.Max([]int{12, lo.Min([]int{params.Width, params.Height}) / 20})
	}

	var data bytes.Buffer
	if err := g.placeholder.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

// imageURL lets inline data images through the template's URL filter.
func imageURL(ref string) any {
	if strings.HasPrefix(ref, "data:image/") {
		return template.URL(ref)
	}
	return ref
}

const (
	defaultPlaceholderSide = 512
	maxPlaceholderSide     = 4096
)

// PlaceholderFromQuery reads height, width and text from a placeholder
// reference's query string. Dimensions are clamped to 1..4096.
func PlaceholderFromQuery(q url.Values) PlaceholderParams {
	side := func(key string) int {
		n, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return defaultPlaceholderSide
		}
		return lo.Clamp(n, 1, maxPlaceholderSide)
	}
	return PlaceholderParams{
		Width:  side("width"),
		Height: side("height"),
		Text:   q.Get("text"),
	}
}
