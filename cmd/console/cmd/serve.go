package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-admin-console/devbackend"
	"github.com/jrsteele09/go-admin-console/gateway"
	"github.com/jrsteele09/go-admin-console/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	devBackendAddr string
	staticDir      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser gateway in front of the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.New()
		return runUntilStopped(c.GetAppName(), c.GetPort(), func() (http.Handler, error) {
			var opts []gateway.Option
			if staticDir != "" {
				opts = append(opts, gateway.WithPages(gateway.StaticPages(os.DirFS(staticDir))))
			}
			return gateway.New(c, opts...)
		})
	},
}

var devBackendCmd = &cobra.Command{
	Use:   "devbackend",
	Short: "Run an in-memory API backend for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.New()
		return runUntilStopped("Dev Backend", devBackendAddr, func() (http.Handler, error) {
			return devbackend.New(c)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Folder with the built front end, served behind the route guard")
	devBackendCmd.Flags().StringVar(&devBackendAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd, devBackendCmd)
}

// runUntilStopped restarts the server after a panic and returns once it shuts
// down cleanly on a stop signal
func runUntilStopped(appName, addr string, handler func() (http.Handler, error)) error {
	for {
		err := run(appName, addr, handler)
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			return err
		}
		log.Err(err).Msg("Restarting server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("Server stopped")
	return nil
}

var errPanicRecovered = errors.New("panic recovered")

func run(appName, addr string, handler func() (http.Handler, error)) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	h, err := handler()
	if err != nil {
		return err
	}
	displayAppname(appName)

	server := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	failed := make(chan error, 1)
	go func() {
		failed <- listenAndServe(server)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-failed:
		return err
	case <-stop:
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
