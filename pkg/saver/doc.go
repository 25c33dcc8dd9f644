// Package saver writes manga covers and pages to the app's image cache or to
// the shared Pictures collection.
//
// A Cover carries a decoded bitmap and is always stored as JPEG. A Page
// carries already encoded bytes, which are copied verbatim once the leading
// header identifies a known image format. The storage route depends on the
// host:
//
//	Location   scoped storage   route
//	Cache      any              file in Host.CacheImageDir
//	Pictures   no               file in <PublicPicturesDir>/<AppName>/<path>
//	Pictures   yes              media store entry under Pictures/<AppName>/<path>
//
// Every successful save is reported to the media scanner and returns a URI:
// a file:// URI for direct writes, a content:// URI for media store entries.
//
// Basic usage:
//
//	s := saver.New(host, store, scanner, log)
//	uri, err := s.Save(ctx, saver.Page{
//		Open:     func() (io.ReadCloser, error) { return os.Open("p1.webp") },
//		Name:     "chapter1_page1",
//		Location: saver.NewPictures("one-piece"),
//	})
package saver
