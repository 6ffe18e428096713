package download

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmorgan81/promptbot/internal/image"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/page"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrUnsupported = errors.New("unsupported image reference")

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// Saver writes an image reference to a response as a file attachment.
type Saver struct {
	Client    *http.Client
	Templator *page.Templator
}

func NewSaver(i *do.Injector) (*Saver, error) {
	return &Saver{
		Client:    do.MustInvoke[*http.Client](i),
		Templator: do.MustInvoke[*page.Templator](i),
	}, nil
}

// Save resolves ref and streams it to w. filename gets an extension
// matching the image's content type.
func (s *Saver) Save(ctx context.Context, w http.ResponseWriter, ref, filename string) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("download").With("filename", filename)

	switch {
	case image.IsPlaceholder(ref):
		log.Info("saving placeholder")
		return s.savePlaceholder(ctx, w, ref, filename)
	case strings.HasPrefix(ref, "data:"):
		log.Info("saving inline image")
		return saveData(w, ref, filename)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		log.Info("saving remote image", "ref", ref)
		return s.saveRemote(ctx, w, ref, filename)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, ref)
	}
}

func (s *Saver) savePlaceholder(ctx context.Context, w http.ResponseWriter, ref, filename string) error {
	u, err := url.Parse(ref)
	if err != nil {
		return err
	}
	svg, err := s.Templator.Placeholder(ctx, page.PlaceholderFromQuery(u.Query()))
	if err != nil {
		return err
	}
	writeHeaders(w, "image/svg+xml", filename, int64(len(svg)))
	_, err = w.Write(svg)
	return err
}

func saveData(w http.ResponseWriter, ref, filename string) error {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return fmt.Errorf("%w: malformed data reference", ErrUnsupported)
	}

	contentType, encoded := strings.CutSuffix(meta, ";base64")
	var data []byte
	if encoded {
		var err error
		if data, err = base64.StdEncoding.DecodeString(payload); err != nil {
			return err
		}
	} else {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return err
		}
		data = []byte(text)
	}

	writeHeaders(w, lo.Ternary(contentType != "", contentType, "image/png"), filename, int64(len(data)))
	_, err := w.Write(data)
	return err
}

func (s *Saver) saveRemote(ctx context.Context, w http.ResponseWriter, ref, filename string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &image.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	writeHeaders(w, resp.Header.Get("Content-Type"), filename, resp.ContentLength)
	_, err = io.Copy(w, resp.Body)
	return err
}

func writeHeaders(w http.ResponseWriter, contentType, filename string, length int64) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/png"
	}
	ext := extensions[mediaType]
	if ext == "" {
		ext = ".png"
	}

	h := w.Header()
	h.Set("Content-Type", mediaType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename + ext}))
	if length >= 0 {
		h.Set("Content-Length", strconv.FormatInt(length, 10))
	}
	w.WriteHeader(http.StatusOK)
}
