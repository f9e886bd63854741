package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ObjectKeyScheme marks an input that lives in the configured R2 bucket.
const ObjectKeyScheme = "r2://"

// InputResolver turns the model and cloth references of a request into paths
// the try-on tool can open.
type InputResolver struct {
	HTTPClient       *http.Client
	MaxDownloadBytes int64
	// URLCache is optional; without it r2:// references are rejected.
	URLCache URLCacheServiceProvider
}

// Inputs are the tool-ready paths for one request.
type Inputs struct {
	ModelPath string
	ClothPath string
}

// Resolve acquires both inputs concurrently. Local paths pass through
// untouched; remote ones are downloaded, normalized and written into ws.
func (r *InputResolver) Resolve(ctx context.Context, ws *Workspace, modelRef, clothRef string) (Inputs, error) {
	var in Inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.acquire(gctx, ws, modelRef, "model.png")
		in.ModelPath = p
		return err
	})
	g.Go(func() error {
		p, err := r.acquire(gctx, ws, clothRef, "cloth.png")
		in.ClothPath = p
		return err
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

func (r *InputResolver) acquire(ctx context.Context, ws *Workspace, ref, name string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, ObjectKeyScheme):
		key := strings.TrimPrefix(ref, ObjectKeyScheme)
		if r.URLCache == nil {
			return "", wrap(ErrInputAcquisition, fmt.Sprintf("object storage is not configured, cannot load %s", ref), nil)
		}
		url, err := r.URLCache.GetReadURL(ctx, key)
		if err != nil {
			return "", wrap(ErrInputAcquisition, fmt.Sprintf("resolve %s", ref), err)
		}
		return r.download(ctx, ws, url, name)
	case isRemoteURL(ref):
		return r.download(ctx, ws, ref, name)
	default:
		return ref, nil
	}
}

func (r *InputResolver) download(ctx context.Context, ws *Workspace, url, name string) (string, error) {
	maxBytes := r.MaxDownloadBytes
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	data, err := ReadFileFromUrl(ctx, r.HTTPClient, url, maxBytes)
	if err != nil {
		return "", wrap(ErrInputAcquisition, fmt.Sprintf("download %s", name), err)
	}
	img, err := NormalizeImage(data)
	if err != nil {
		return "", wrap(ErrInputAcquisition, fmt.Sprintf("decode %s", name), err)
	}
	path := ws.File(name)
	if err := SaveNormalized(img, path); err != nil {
		return "", wrap(ErrInputAcquisition, fmt.Sprintf("store %s", name), err)
	}
	return path, nil
}
