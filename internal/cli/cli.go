package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/promptbot/internal/handler"
	"github.com/dmorgan81/promptbot/internal/lambdaurl"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func NewCLI(ctx context.Context, injector *do.Injector) *cobra.Command {
	gin.SetMode(gin.ReleaseMode)

	rootCmd := &cobra.Command{
		Use:   "promptbot",
		Short: "Text to image generator",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator page over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = do.MustInvokeNamed[string](injector, "listen_addr")
			}
			return serve(ctx, injector, addr)
		},
	}
	serveCmd.Flags().String("addr", "", "Address to listen on (default $LISTEN_ADDR or :8080)")

	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve the generator page behind a Lambda function URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := do.Invoke[*handler.Handler](injector)
			if err != nil {
				return err
			}
			h.WaitForSettle = true
			adapter := &lambdaurl.Adapter{Handler: h.Routes(ctx)}
			lambda.StartWithOptions(adapter.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
				_ = injector.Shutdown()
			}))
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, lambdaCmd)
	return rootCmd
}

func serve(ctx context.Context, injector *do.Injector, addr string) error {
	h, err := do.Invoke[*handler.Handler](injector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := log.FromContextOrDiscard(ctx).WithGroup("server").With("addr", addr)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), injector.Shutdown())
	})
	return group.Wait()
}
