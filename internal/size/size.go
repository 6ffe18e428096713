package size

import "github.com/samber/lo"

type Option struct {
	ID     string
	Label  string
	Width  int
	Height int
}

const DefaultID = "1-1"

var options = []Option{
	{ID: "1-1", Label: "1-1", Width: 512, Height: 512},
	{ID: "16-9", Label: "16-9", Width: 768, Height: 768},
	{ID: "3-2", Label: "3-2", Width: 1024, Height: 1024},
	{ID: "9-16", Label: "9-16", Width: 1024, Height: 1024},
}

// Options returns a copy of the size table in display order.
func Options() []Option {
	return append([]Option(nil), options...)
}

func Lookup(id string) (Option, bool) {
	return lo.Find(options, func(o Option) bool {
		return o.ID == id
	})
}
