package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmorgan81/promptbot/internal/controller"
	"github.com/dmorgan81/promptbot/internal/download"
	"github.com/dmorgan81/promptbot/internal/image"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/dmorgan81/promptbot/internal/page"
	"github.com/dmorgan81/promptbot/internal/session"
	"github.com/dmorgan81/promptbot/internal/size"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
)

type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
}

type GenerateResponse struct {
	Kind   string `json:"kind"`
	Image  string `json:"image,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	// WaitForSettle makes form submits block until the generation settles.
	// Required under Lambda, which freezes the process after each response.
	WaitForSettle bool

	sessions  *session.Store
	generator image.Generator
	templator *page.Templator
	saver     *download.Saver
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		sessions:  do.MustInvoke[*session.Store](i),
		generator: do.MustInvoke[image.Generator](i),
		templator: do.MustInvoke[*page.Templator](i),
		saver:     do.MustInvoke[*download.Saver](i),
	}, nil
}

// Routes builds the gin engine. Requests inherit the logger carried by ctx.
func (h *Handler) Routes(ctx context.Context) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(log.FromContextOrDiscard(ctx)), gin.Recovery())

	r.GET("/", h.index)
	r.POST("/generate", h.generate)
	r.GET("/download", h.download)
	r.GET(image.PlaceholderPath, h.placeholder)
	r.POST("/api/generate", h.apiGenerate)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func (h *Handler) current(c *gin.Context) *controller.Controller {
	cookie, _ := c.Cookie(session.CookieName)
	id, ctrl := h.sessions.Get(c.Request.Context(), cookie)
	if id != cookie {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, id, 0, "/", "", false, true)
	}
	return ctrl
}

func (h *Handler) index(c *gin.Context) {
	state := h.current(c).State()

	html, err := h.templator.Page(c.Request.Context(),
		page.NewParams(state.Prompt, state.SizeID, state.Generating, state.Result))
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *Handler) generate(c *gin.Context) {
	ctx := c.Request.Context()
	ctrl := h.current(c)
	prompt := c.PostForm("prompt")
	sizeID := c.DefaultPostForm("size", size.DefaultID)

	settled, err := ctrl.Start(ctx, prompt, sizeID)
	if err != nil {
		log.FromContextOrDiscard(ctx).Info("generation not started", "reason", err.Error())
	} else if h.WaitForSettle {
		<-settled
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) download(c *gin.Context) {
	ctx := c.Request.Context()
	saved := false
	err := h.current(c).Download(func(ref, filename string) error {
		saved = true
		return h.saver.Save(ctx, c.Writer, ref, filename)
	})

	switch {
	case !saved:
		c.Redirect(http.StatusSeeOther, "/")
	case err != nil && !c.Writer.Written():
		_ = c.AbortWithError(http.StatusBadGateway, err)
	case err != nil:
		_ = c.Error(err)
	}
}

func (h *Handler) placeholder(c *gin.Context) {
	svg, err := h.templator.Placeholder(c.Request.Context(), page.PlaceholderFromQuery(c.Request.URL.Query()))
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

func (h *Handler) apiGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Size == "" {
		req.Size = size.DefaultID
	}

	out, err := controller.New(h.generator).Generate(c.Request.Context(), req.Prompt, req.Size)
	if errors.Is(err, controller.ErrEmptyPrompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Kind:   out.Kind.String(),
		Image:  out.Image,
		Reason: out.Reason(),
	})
}
