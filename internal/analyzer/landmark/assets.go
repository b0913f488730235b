package landmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	pigo "github.com/esimov/pigo/core"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// DefaultMirrors lists the cascade asset sources tried in order. The first
// mirror that serves every asset wins.
var DefaultMirrors = []string{
	"https://raw.githubusercontent.com/esimov/pigo/master/cascade",
	"https://cdn.jsdelivr.net/gh/esimov/pigo@master/cascade",
}

// landmarkCascades are the facial landmark-point cascades. The first five
// localize the eye regions (run once per eye, flipped for the right side),
// the last four the mouth.
var (
	eyeCascadeNames   = []string{"lp46", "lp44", "lp42", "lp38", "lp312"}
	mouthCascadeNames = []string{"lp93", "lp84", "lp82", "lp81"}
)

const assetFetchTimeout = 30 * time.Second

// modelAssets holds the unpacked cascades.
type modelAssets struct {
	face   *pigo.Pigo
	puploc *pigo.PuplocCascade
	eyes   map[string]*pigo.PuplocCascade
	mouth  map[string]*pigo.PuplocCascade
}

// Loader lazily fetches and unpacks the cascade assets. A load failure is
// cached: the analyzer stays unusable until Reset. Safe for concurrent use.
type Loader struct {
	mirrors    []string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	assets *modelAssets
	err    error
	tried  bool
}

// NewLoader creates a cascade loader over the given mirror list. An empty
// list falls back to DefaultMirrors.
func NewLoader(mirrors []string, logger *slog.Logger) *Loader {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		mirrors:    mirrors,
		httpClient: &http.Client{Timeout: assetFetchTimeout},
		logger:     logger,
	}
}

// Load returns the unpacked assets, fetching them on first use. Once every
// mirror has failed the error is cached and returned for subsequent calls.
func (l *Loader) Load(ctx context.Context) (*modelAssets, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.assets != nil {
		return l.assets, nil
	}
	if l.tried {
		return nil, l.err
	}
	l.tried = true

	var lastErr error
	for _, mirror := range l.mirrors {
		assets, err := l.loadFromMirror(ctx, mirror)
		if err != nil {
			l.logger.Warn("cascade mirror failed",
				slog.String("mirror", mirror),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}
		l.assets = assets
		l.logger.Info("landmark model assets loaded", slog.String("mirror", mirror))
		return assets, nil
	}

	l.err = fmt.Errorf("%w: all mirrors exhausted: %v", domain.ErrModelLoad, lastErr)
	return nil, l.err
}

// Prewarm starts a background load so a later detection is not gated by the
// first fetch. Errors are cached the same way as for Load.
func (l *Loader) Prewarm() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), assetFetchTimeout)
		defer cancel()
		if _, err := l.Load(ctx); err != nil {
			l.logger.Warn("landmark model prewarm failed", slog.Any("error", err))
		}
	}()
}

// Loaded reports whether the assets are ready without triggering a fetch.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.assets != nil
}

// Reset clears cached assets and errors so the next Load retries the
// mirrors.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets = nil
	l.err = nil
	l.tried = false
}

func (l *Loader) loadFromMirror(ctx context.Context, mirror string) (*modelAssets, error) {
	faceBytes, err := l.fetch(ctx, mirror+"/facefinder")
	if err != nil {
		return nil, err
	}
	classifier, err := pigo.NewPigo().Unpack(faceBytes)
	if err != nil {
		return nil, fmt.Errorf("unpack facefinder: %w", err)
	}

	puplocBytes, err := l.fetch(ctx, mirror+"/puploc")
	if err != nil {
		return nil, err
	}
	puplocCascade, err := pigo.NewPuplocCascade().UnpackCascade(puplocBytes)
	if err != nil {
		return nil, fmt.Errorf("unpack puploc: %w", err)
	}

	assets := &modelAssets{
		face:   classifier,
		puploc: puplocCascade,
		eyes:   make(map[string]*pigo.PuplocCascade, len(eyeCascadeNames)),
		mouth:  make(map[string]*pigo.PuplocCascade, len(mouthCascadeNames)),
	}

	for _, name := range eyeCascadeNames {
		cascade, err := l.fetchCascade(ctx, mirror, name)
		if err != nil {
			return nil, err
		}
		assets.eyes[name] = cascade
	}
	for _, name := range mouthCascadeNames {
		cascade, err := l.fetchCascade(ctx, mirror, name)
		if err != nil {
			return nil, err
		}
		assets.mouth[name] = cascade
	}

	return assets, nil
}

func (l *Loader) fetchCascade(ctx context.Context, mirror, name string) (*pigo.PuplocCascade, error) {
	data, err := l.fetch(ctx, mirror+"/lps/"+name)
	if err != nil {
		return nil, err
	}
	cascade, err := pigo.NewPuplocCascade().UnpackCascade(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}
	return cascade, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}
