package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"spotify-dl-go/internal/api"
	"spotify-dl-go/internal/config"
	"spotify-dl-go/internal/engine"
	"spotify-dl-go/internal/server"
	"spotify-dl-go/internal/updater"
	"spotify-dl-go/internal/version"
)

var (
	// Flags
	flagUsername  string
	flagPassword  string
	flagToken     string
	flagQuality   string
	flagOutputDir string
	flagFormat    string
	flagProxy     string
	flagNoSave    bool
	flagPort      string
	flagThreads   int
)

func main() {
	// .env is optional; flags and account.json take precedence
	_ = godotenv.Load()

	var rootCmd = &cobra.Command{
		Use:     "spotify-dl-go",
		Short:   "A high performance Spotify music downloader",
		Long:    `A Go implementation of the Spotify downloader with dual-mode support (CLI & Web).`,
		Version: version.Short(),
	}

	// Custom version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n", version.Full()))

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Run: func(cmd *cobra.Command, args []string) {
			client, cfg, err := setupClient(true)
			if err != nil {
				fmt.Printf("Startup Error: %v\n", err)
				os.Exit(1)
			}

			eng := newEngine(client, cfg)
			eng.Quiet = true
			fmt.Printf("Starting Server on port %s...\n", flagPort)
			server.Start(eng, flagPort)
		},
	}
	serveCmd.Flags().StringVarP(&flagPort, "port", "P", "8080", "Server port")

	var dlCmd = &cobra.Command{
		Use:   "dl [url/uri ...]",
		Short: "Download tracks, albums, playlists or artists by link or URI",
		Long: `Download tracks, albums, playlists or artists.

Accepts open.spotify.com links and spotify: URIs as arguments, or one
per line on stdin when no arguments are given.`,
		Run: func(cmd *cobra.Command, args []string) {
			lines := args
			if len(lines) == 0 {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					line := strings.TrimSpace(scanner.Text())
					if line != "" {
						lines = append(lines, line)
					}
				}
			}
			if len(lines) == 0 {
				fmt.Println("Nothing to download. Pass links as arguments or pipe them on stdin.")
				os.Exit(1)
			}

			client, cfg, err := setupClient(false)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}

			eng := newEngine(client, cfg)

			summary, err := eng.DownloadAll(context.Background(), lines)
			if err != nil {
				fmt.Printf("Download failed: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Done: %d written, %d skipped, %d failed (%d tracks from %d inputs)\n",
				summary.Written, summary.Skipped, summary.Failed, summary.Resolved, summary.Inputs)
			if summary.Failed > 0 {
				os.Exit(1)
			}
		},
	}

	// dlCmd Flags
	dlCmd.Flags().StringVarP(&flagQuality, "quality", "q", "", "Audio quality (high=320kbps, medium=160kbps, low=96kbps)")
	dlCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "Output directory")
	dlCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "File name format, e.g. \"{author} - {name}.{ext}\"")
	dlCmd.Flags().IntVarP(&flagThreads, "threads", "n", 0, "Number of concurrent download threads (1-10)")

	var updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Update to the latest release",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runUpdate(); err != nil {
				fmt.Printf("Update failed: %v\n", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.AddCommand(dlCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(updateCmd)

	// Global Flags
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", "", "Account username")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "Account password")
	rootCmd.PersistentFlags().StringVarP(&flagToken, "token", "t", "", "Access token")
	rootCmd.PersistentFlags().StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks5), overrides HTTP_PROXY/HTTPS_PROXY env")
	rootCmd.PersistentFlags().BoolVar(&flagNoSave, "nosave", false, "Do not save credentials to account.json")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newEngine builds an engine from config file defaults overridden by flags.
func newEngine(client *api.Client, cfg *config.Config) *engine.Engine {
	eng := engine.New(client)

	eng.Quality = cfg.Quality
	if flagQuality != "" {
		eng.Quality = api.Quality(flagQuality)
	}

	eng.OutputDir = cfg.Output
	if flagOutputDir != "" {
		eng.OutputDir = flagOutputDir
	}

	if cfg.Format != "" {
		eng.NameFormat = cfg.Format
	}
	if flagFormat != "" {
		eng.NameFormat = flagFormat
	}

	eng.SetConcurrency(cfg.Threads)
	if flagThreads > 0 {
		eng.SetConcurrency(flagThreads)
	}

	return eng
}

// setupClient handles all configuration, authentication, and client initialization logic
func setupClient(isServer bool) (*api.Client, *config.Config, error) {
	// 1. Load Configs
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("bad config file: %w", err)
	}
	acc, _ := config.LoadAccount()

	// 2. Create Client
	client := api.NewClient(newDeviceID())

	// Resolve Proxy. Priority: Flag > Config > Env (handled by req)
	proxy := cfg.Proxy
	if flagProxy != "" {
		proxy = flagProxy
	}
	if proxy != "" {
		if err := client.SetProxy(proxy); err != nil {
			fmt.Printf("Warning: Failed to set proxy: %v\n", err)
		}
	}

	// 3. Try the saved or flagged token first
	token := flagToken
	if token == "" && acc.AccessToken != "" {
		token = acc.AccessToken
	}
	if token != "" {
		client.SetAccessToken(token)
		if client.ValidateToken(context.Background()) {
			return client, cfg, nil
		}
		fmt.Println("Saved token expired. Logging in again...")
	}

	// 4. Resolve credentials: flags, then account.json, then env
	username := flagUsername
	password := flagPassword
	if username == "" {
		username = acc.Username
	}
	if password == "" {
		password = acc.Password
	}
	if username == "" {
		username = os.Getenv("SPOTIFY_USERNAME")
	}
	if password == "" {
		password = os.Getenv("SPOTIFY_PASSWORD")
	}

	if username == "" || password == "" {
		if !isServer {
			fmt.Println("Authentication required.")
			reader := bufio.NewReader(os.Stdin)

			if username == "" {
				fmt.Print("Username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if password == "" {
				fmt.Print("Password: ")
				password, _ = reader.ReadString('\n')
				password = strings.TrimSpace(password)
			}
		}
	}

	if username == "" || password == "" {
		if isServer {
			fmt.Println("Warning: Starting server without authentication. Streaming will fail.")
			return client, cfg, nil
		}
		return nil, nil, fmt.Errorf("authentication required. Provide --token or --username/--password")
	}

	fmt.Println("Logging in...")
	resp, err := client.Login(username, password)
	if err != nil {
		return nil, nil, fmt.Errorf("login failed: %w", err)
	}

	// 5. Save account
	if !flagNoSave {
		acc.Username = username
		acc.Password = password
		acc.AccessToken = resp.AccessToken
		if err := config.SaveAccount(acc); err != nil {
			fmt.Printf("Warning: Failed to save account: %v\n", err)
		}
	}

	return client, cfg, nil
}

// newDeviceID generates a fresh random device identifier for this run.
func newDeviceID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "spotify-dl-go"
	}
	return hex.EncodeToString(buf)
}

func runUpdate() error {
	if err := updater.SetProxy(flagProxy); err != nil {
		return err
	}

	fmt.Println("Checking for updates...")
	result, err := updater.CheckForUpdate()
	if err != nil {
		return err
	}

	if !result.HasUpdate {
		fmt.Printf("Already up to date (%s)\n", result.CurrentVersion)
		return nil
	}

	fmt.Printf("Updating %s -> %s\n", result.CurrentVersion, result.LatestVersion)
	asset, err := result.ReleaseInfo.GetPlatformAsset()
	if err != nil {
		return err
	}

	err = updater.DownloadAndApply(asset, func(current, total int64) {
		if total > 0 {
			fmt.Printf("\r  Progress: %d%%", int(float64(current)/float64(total)*100))
		}
	})
	if err != nil {
		fmt.Println()
		return err
	}

	fmt.Println("\nUpdate complete. Restart to use the new version.")
	return nil
}
