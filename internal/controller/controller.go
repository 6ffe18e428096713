package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/promptbot/internal/image"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/size"
)

var (
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	ErrGenerating  = errors.New("generation already in progress")
	ErrUnknownSize = errors.New("unknown size")
)

type State int

const (
	Idle State = iota
	Generating
	Displaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Displaying:
		return "displaying"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// UIState is a snapshot of what the page shows. An empty Result means no
// image.
type UIState struct {
	Prompt     string
	SizeID     string
	State      State
	Generating bool
	Result     string
	Outcome    Outcome
}

// SaveFunc writes the image behind ref out as a file named filename.
type SaveFunc func(ref, filename string) error

type Controller struct {
	generator image.Generator
	now       func() time.Time

	mu    sync.Mutex
	state UIState
}

func New(generator image.Generator) *Controller {
	return &Controller{
		generator: generator,
		now:       time.Now,
		state:     UIState{SizeID: size.DefaultID},
	}
}

func (c *Controller) State() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generate dispatches one provider request and blocks until it settles.
func (c *Controller) Generate(ctx context.Context, prompt, sizeID string) (Outcome, error) {
	if err := c.begin(ctx, prompt, sizeID); err != nil {
		return Outcome{}, err
	}
	return c.run(context.WithoutCancel(ctx), prompt, sizeID), nil
}

// Start performs the same guarded transition as Generate but settles in
// the background. The returned channel receives the outcome once.
func (c *Controller) Start(ctx context.Context, prompt, sizeID string) (<-chan Outcome, error) {
	if err := c.begin(ctx, prompt, sizeID); err != nil {
		return nil, err
	}

	ch := make(chan Outcome, 1)
	go func(ctx context.Context) {
		ch <- c.run(ctx, prompt, sizeID)
		close(ch)
	}(context.WithoutCancel(ctx))
	return ch, nil
}

// Download hands the current result to save. It is a no-op without a
// result or while generating.
func (c *Controller) Download(save SaveFunc) error {
	c.mu.Lock()
	ref, generating := c.state.Result, c.state.Generating
	c.mu.Unlock()

	if ref == "" || generating {
		return nil
	}
	return save(ref, "generated-image-"+strconv.FormatInt(c.now().UnixMilli(), 10))
}

func (c *Controller) begin(ctx context.Context, prompt, sizeID string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Generating {
		return ErrGenerating
	}

	log.FromContextOrDiscard(ctx).WithGroup("controller").Info("starting generation", "size", sizeID)
	c.state = UIState{
		Prompt:     prompt,
		SizeID:     sizeID,
		State:      Generating,
		Generating: true,
	}
	return nil
}

func (c *Controller) run(ctx context.Context, prompt, sizeID string) (out Outcome) {
	log := log.FromContextOrDiscard(ctx).WithGroup("controller").With("size", sizeID)

	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Errorf("generator panicked: %v", r))
		}
		if out.Kind == KindFailed {
			log.Error("generation failed", "error", out.Err)
		} else {
			log.Info("generation settled", "kind", out.Kind.String(), "image", out.Image)
		}
		c.settle(out)
	}()

	resp, err := c.generator.Generate(ctx, image.Params{
		Prompt:  prompt,
		StyleID: image.StyleID,
		Size:    sizeID,
	})
	return resolve(ctx, prompt, sizeID, resp, err)
}

func resolve(ctx context.Context, prompt, sizeID string, resp image.Response, err error) Outcome {
	if err != nil {
		if !image.IsAbsent(err) {
			return Failed(err)
		}
		log.FromContextOrDiscard(ctx).WithGroup("controller").Warn("provider returned no image", "error", err)
	}

	if origin, ok := resp.Origin(); ok {
		return OK(origin)
	}
	if opt, ok := size.Lookup(sizeID); ok {
		return Fallback(image.Placeholder(opt.Width, opt.Height, prompt))
	}
	return Failed(fmt.Errorf("%q: %w", sizeID, ErrUnknownSize))
}

func (c *Controller) settle(out Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.State = Displaying
	c.state.Generating = false
	c.state.Result = out.Image
	c.state.Outcome = out
}
