// Package checker determines the signing status of firmware builds by
// invoking an external checker tool. The tool is an opaque
// collaborator: when it cannot be invoked, records keep their signing
// status as unknown rather than being dropped, since signing status is
// supplementary metadata.
package checker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/go-resty/resty/v2"
	"github.com/m1stadev/ios-beta-api/internal/model"
)

// ErrCheckerUnavailable indicates that the external signing checker
// could not be invoked, failed, or timed out.
var ErrCheckerUnavailable = errors.New("signing checker unavailable")

const signedMarker = "IS being signed!"
const unsignedMarker = "IS NOT being signed!"

// SigningChecker resolves the signing status of a single firmware record.
type SigningChecker interface {
	Check(ctx context.Context, rec model.FirmwareRecord) (model.SigningStatus, error)
}

// TSSChecker shells out to tsschecker for every record. Board configs
// are resolved once per device from the device API and cached for the
// lifetime of the checker.
type TSSChecker struct {
	path    string
	timeout time.Duration
	api     *resty.Client

	mu     sync.Mutex
	boards map[string]string

	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewTSSChecker verifies that the checker binary is present before
// returning. deviceAPIURL is the base URL for board config lookups,
// e.g. https://api.ipsw.me/v4/device.
func NewTSSChecker(path string, timeout time.Duration, deviceAPIURL string) (*TSSChecker, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not installed: %w", ErrCheckerUnavailable, path, err)
	}
	return &TSSChecker{
		path:    resolved,
		timeout: timeout,
		api: resty.New().
			SetBaseURL(deviceAPIURL).
			SetTimeout(30 * time.Second),
		boards:     map[string]string{},
		runCommand: runCommand,
	}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (t *TSSChecker) Check(ctx context.Context, rec model.FirmwareRecord) (model.SigningStatus, error) {
	board, err := t.boardConfig(ctx, rec.Identifier)
	if err != nil {
		return model.StatusUnknown, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.runCommand(ctx, t.path,
		"-d", rec.Identifier,
		"-B", board,
		"--buildid", rec.Build,
	)
	status := parseCheckerOutput(string(out))
	if status == model.StatusUnknown {
		if err == nil {
			err = errors.New("checker output reported neither signed nor unsigned")
		}
		return model.StatusUnknown, fmt.Errorf("%w: %s/%s: %w", ErrCheckerUnavailable, rec.Identifier, rec.Build, err)
	}
	return status, nil
}

// parseCheckerOutput classifies the tool's stdout. The tool prints
// free-form text with a well-known marker line for each verdict.
func parseCheckerOutput(out string) model.SigningStatus {
	switch {
	case strings.Contains(out, signedMarker):
		return model.StatusSigned
	case strings.Contains(out, unsignedMarker):
		return model.StatusUnsigned
	default:
		return model.StatusUnknown
	}
}

func (t *TSSChecker) boardConfig(ctx context.Context, identifier string) (string, error) {
	t.mu.Lock()
	board, ok := t.boards[identifier]
	t.mu.Unlock()
	if ok {
		return board, nil
	}

	res, err := t.api.R().
		SetContext(ctx).
		Get("/" + identifier)
	if err != nil {
		return "", fmt.Errorf("%w: board config lookup for %s: %w", ErrCheckerUnavailable, identifier, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: board config lookup for %s returned status %d", ErrCheckerUnavailable, identifier, res.StatusCode())
	}
	board, err = jsonparser.GetString(res.Body(), "boards", "[0]", "boardconfig")
	if err != nil {
		return "", fmt.Errorf("%w: no board config for %s in device API response", ErrCheckerUnavailable, identifier)
	}

	t.mu.Lock()
	t.boards[identifier] = board
	t.mu.Unlock()
	return board, nil
}
