package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/tui"
)

const (
	releaseURL      = "https://api.github.com/repos/naveenspark/tempo/releases/latest"
	binaryName      = "tempo"
	checksumsAsset  = "checksums.txt"
	maxDownloadSize = 100 << 20
	maxBinarySize   = 200 << 20
)

// errDevBuild is returned when the running binary has no release version.
var errDevBuild = errors.New("dev build, install a release to enable updates")

type ghRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// updater replaces the running binary with the latest release.
type updater struct {
	httpClient *http.Client
	releaseURL string
	execPath   string
	goos       string
	goarch     string
	log        zerolog.Logger
}

// updateResult describes what update did.
type updateResult struct {
	From, To string
	Updated  bool
}

func (u *updater) assetName() string {
	return fmt.Sprintf("%s_%s_%s.tar.gz", binaryName, u.goos, u.goarch)
}

// Run checks for a newer release than current and installs it over
// u.execPath.
func (u *updater) Run(ctx context.Context, current string) (updateResult, error) {
	current = strings.TrimPrefix(current, "v")
	res := updateResult{From: "v" + current, To: "v" + current}
	if current == "" || current == "dev" {
		return res, errDevBuild
	}

	release, err := u.latest(ctx)
	if err != nil {
		return res, err
	}
	latest := strings.TrimPrefix(release.TagName, "v")
	if !tui.IsNewerVersion(latest, current) {
		return res, nil
	}
	res.To = "v" + latest

	tarballName := u.assetName()
	var tarballURL, checksumsURL string
	for _, a := range release.Assets {
		switch a.Name {
		case tarballName:
			tarballURL = a.BrowserDownloadURL
		case checksumsAsset:
			checksumsURL = a.BrowserDownloadURL
		}
	}
	if tarballURL == "" {
		return res, fmt.Errorf("updater.Run: no asset %s in release %s", tarballName, release.TagName)
	}
	if checksumsURL == "" {
		return res, fmt.Errorf("updater.Run: release %s has no %s, aborting", release.TagName, checksumsAsset)
	}

	tmpDir, err := os.MkdirTemp("", "tempo-update-*")
	if err != nil {
		return res, fmt.Errorf("updater.Run: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	tarballPath := filepath.Join(tmpDir, tarballName)
	if err := u.download(ctx, tarballURL, tarballPath); err != nil {
		return res, fmt.Errorf("updater.Run: download tarball: %w", err)
	}
	checksumsPath := filepath.Join(tmpDir, checksumsAsset)
	if err := u.download(ctx, checksumsURL, checksumsPath); err != nil {
		return res, fmt.Errorf("updater.Run: download checksums: %w", err)
	}
	if err := verifyChecksum(tarballPath, checksumsPath, tarballName); err != nil {
		return res, fmt.Errorf("updater.Run: %w", err)
	}

	newBinaryPath := filepath.Join(tmpDir, binaryName)
	if err := extractBinary(tarballPath, newBinaryPath); err != nil {
		return res, fmt.Errorf("updater.Run: extract: %w", err)
	}
	if err := replaceBinary(newBinaryPath, u.execPath); err != nil {
		return res, err
	}
	u.log.Info().Str("from", res.From).Str("to", res.To).Str("path", u.execPath).Msg("binary updated")
	res.Updated = true
	return res, nil
}

func (u *updater) latest(ctx context.Context) (ghRelease, error) {
	var release ghRelease
	err := u.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.releaseURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("release API returned %s", resp.Status)
			if resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
			return backoff.Permanent(fmt.Errorf("parse release: %w", err))
		}
		return nil
	})
	if err != nil {
		return release, fmt.Errorf("updater.latest: %w", err)
	}
	return release, nil
}

func (u *updater) download(ctx context.Context, url, dest string) error {
	return u.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := u.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("HTTP %s from %s", resp.Status, url)
			if resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		f, err := os.Create(dest)
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := io.Copy(f, io.LimitReader(resp.Body, maxDownloadSize)); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return f.Close()
	})
}

// retry runs op with a short exponential backoff. Errors wrapped with
// backoff.Permanent stop immediately.
func (u *updater) retry(ctx context.Context, op backoff.Operation) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxElapsedTime = 10 * time.Second
	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(exp, 3), ctx),
		func(err error, wait time.Duration) {
			u.log.Debug().Err(err).Dur("wait", wait).Msg("update request failed, retrying")
		})
}

func verifyChecksum(filePath, checksumsPath, fileName string) error {
	data, err := os.ReadFile(checksumsPath)
	if err != nil {
		return fmt.Errorf("read checksums: %w", err)
	}
	var expected string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.TrimPrefix(fields[1], "*") == fileName {
			expected = fields[0]
			break
		}
	}
	if expected == "" {
		return fmt.Errorf("no checksum found for %s", fileName)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	if actual := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

func extractBinary(tarballPath, dest string) error {
	f, err := os.Open(tarballPath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}
		if filepath.Base(hdr.Name) != binaryName || hdr.Typeflag != tar.TypeReg {
			continue
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, io.LimitReader(tr, maxBinarySize)); err != nil {
			out.Close() //nolint:errcheck
			return err
		}
		return out.Close()
	}
	return fmt.Errorf("%s binary not found in tarball", binaryName)
}

// replaceBinary stages src next to dst and renames it over dst.
func replaceBinary(src, dst string) error {
	stagePath := dst + ".new"
	defer os.Remove(stagePath) //nolint:errcheck

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("replaceBinary: open: %w", err)
	}
	defer in.Close() //nolint:errcheck

	out, err := os.OpenFile(stagePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied writing to %s, try with sudo", filepath.Dir(dst))
		}
		return fmt.Errorf("replaceBinary: stage: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return fmt.Errorf("replaceBinary: write: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("replaceBinary: close: %w", err)
	}
	if err := os.Rename(stagePath, dst); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied replacing %s, try with sudo", dst)
		}
		return fmt.Errorf("replaceBinary: rename: %w", err)
	}
	return nil
}

func (c *cli) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Install the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if version == "dev" {
				fmt.Fprintln(out, errDevBuild.Error())
				return nil
			}
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("update: find executable: %w", err)
			}
			if execPath, err = filepath.EvalSymlinks(execPath); err != nil {
				return fmt.Errorf("update: resolve symlinks: %w", err)
			}
			u := &updater{
				httpClient: &http.Client{Timeout: 30 * time.Second},
				releaseURL: releaseURL,
				execPath:   execPath,
				goos:       runtime.GOOS,
				goarch:     runtime.GOARCH,
				log:        c.log,
			}
			res, err := u.Run(cmd.Context(), version)
			if err != nil {
				return err
			}
			if !res.Updated {
				printAlreadyCurrent(out, res.From)
				return nil
			}
			// The running process still holds the old code; the new binary
			// prints its own success message.
			if err := syscall.Exec(execPath, []string{binaryName, "update-done", res.From, res.To}, os.Environ()); err != nil {
				printUpdateSuccess(out, res.From, res.To)
			}
			return nil
		},
	}
}

// updateDoneCmd is invoked by the freshly installed binary after update.
func updateDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "update-done FROM TO",
		Hidden: true,
		Args:   cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			printUpdateSuccess(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}
