package saver

import (
	"context"
	"io"
	"net/url"

	"mangasaver/pkg/mediastore"
)

// Host exposes the platform capabilities and directories the saver needs
type Host interface {
	SupportsScopedStorage() bool
	CacheImageDir() string
	PublicPicturesDir() string
	AppName() string
}

// MediaStore allocates shared-storage entries and opens them for writing
type MediaStore interface {
	Insert(ctx context.Context, entry mediastore.Entry) (*url.URL, error)
	OpenOutputStream(ctx context.Context, uri *url.URL, mode string) (io.WriteCloser, error)
}
