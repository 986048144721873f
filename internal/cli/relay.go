package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kshetline/asteroid-comet-data-generator/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve Horizons fetches over websockets",
	Long: `Runs an HTTP service that relays element fetches: clients open a
websocket to /api/fetch, send one request, and receive the session
output as it streams followed by the parsed element set.`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().String("listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	addr := cfg.Relay.ListenAddr
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		addr = v
	}

	service := relay.NewService(horizonsConfig())
	server := &http.Server{
		Addr:    addr,
		Handler: service.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Relay listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down relay")
	case <-cmd.Context().Done():
	}

	service.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
