package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/itsatony/go-insertabove"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr, index string

	cmd := &cobra.Command{
		Use:   CmdNameServe,
		Short: "Serve rendered templates over HTTP for previewing",
		Long: `Starts a preview server. GET /<name> renders the template stored under name,
with the query string available as "query" and the request path as "path".
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := g.open(cmd.ErrOrStderr())
			if err != nil {
				return withExitCode(ExitCodeError, ErrMsgSetupFailed, err)
			}
			defer env.Close()

			if addr == "" {
				addr = env.config.Server.Addr
			}
			if addr == "" {
				addr = FlagDefaultAddr
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServer(env, index),
				ReadHeaderTimeout: ServerReadHeaderTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErrors := make(chan error, 1)
			go func() {
				env.logger.Info(LogMsgServerStarting, zap.String(insertabove.LogFieldAddr, addr))
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					return withExitCode(ExitCodeError, ErrMsgServerFailed, err)
				}
				return nil
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), ServerShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return withExitCode(ExitCodeError, ErrMsgServerFailed, err)
				}
				env.logger.Info(LogMsgServerStopped)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addr, FlagAddr, "", "listen address (default \""+FlagDefaultAddr+"\")")
	cmd.Flags().StringVar(&index, FlagIndex, FlagDefaultIndex, "template rendered for directory paths")
	return cmd
}

// newServer routes page requests to the engine.
func newServer(env *cliEnv, index string) http.Handler {
	r := chi.NewRouter()

	r.Get(RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(HealthResponse))
	})
	r.Handle(RouteMetrics, promhttp.HandlerFor(env.registry, promhttp.HandlerOpts{}))

	r.Get(RouteTemplates, func(w http.ResponseWriter, r *http.Request) {
		names, err := env.engine.Templates(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if names == nil {
			names = []string{}
		}
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		_ = json.NewEncoder(w).Encode(names)
	})

	r.Get(RoutePages, func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, URLParamWildcard)
		if name == "" || strings.HasSuffix(name, TemplatePathDivider) {
			name += index
		}

		query := make(map[string]any, len(r.URL.Query()))
		for k, v := range r.URL.Query() {
			query[k] = v[0]
		}
		data := map[string]any{
			DataKeyPath:  r.URL.Path,
			DataKeyQuery: query,
		}

		w.Header().Set(HeaderContentType, ContentTypeHTML)
		if err := env.engine.RenderTo(r.Context(), w, name, data); err != nil {
			if insertabove.IsTemplateNotFound(err) {
				http.NotFound(w, r)
				return
			}
			env.logger.Warn(LogMsgPageFailed,
				zap.String(insertabove.LogFieldTemplate, name),
				zap.Error(err),
			)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return r
}
